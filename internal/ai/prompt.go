package ai

import "fmt"

// systemPrompt fixes the JSON schema the model must answer with. The analyzer
// parses the response against models.ChurnReport; everything in the schema is
// optional on our side so a partially compliant answer still completes.
const systemPrompt = `You are an expert customer churn prediction analyst.
Analyze the provided CSV data and provide detailed insights about customer churn patterns.

Please provide your analysis in JSON format with the following structure:
{
    "total_customers": number,
    "high_risk_customers": number,
    "predictions": [
        {
            "customer_id": "string",
            "customer_name": "string or null",
            "churn_probability": 0.85,
            "risk_level": "High/Medium/Low",
            "key_factors": ["factor1", "factor2"],
            "recommended_actions": ["action1", "action2"]
        }
    ],
    "insights": "Detailed analysis insights about churn patterns, trends, and key findings",
    "recommendations": "Strategic recommendations for reducing customer churn"
}

Focus on identifying:
1. High-risk customers (>70% churn probability)
2. Key factors contributing to churn
3. Actionable recommendations for retention
4. Overall patterns and trends`

// userMessage references the directly computed row count so the model has a
// ground-truth customer total to anchor on.
func userMessage(customerCount int) string {
	return fmt.Sprintf(`Please analyze this customer data CSV file for churn prediction.
The file contains %d customer records.

Provide comprehensive churn analysis including individual customer risk assessments,
key churn indicators, and strategic recommendations for customer retention.

Return the response in valid JSON format as specified in your system message.`, customerCount)
}
