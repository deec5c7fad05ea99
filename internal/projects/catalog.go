package projects

import "github.com/ai-portfolio/backend/internal/storage/models"

// builtIns is the static catalog, shown before stored projects in this order.
var builtIns = []models.Project{
	{
		Title:       "Churn Prediction",
		Description: "Predicts customer churn using a simple interpretable model.",
		DemoType:    models.DemoSlider,
		Skills:      []string{"Logistic Regression", "EDA", "Model Interpretation"},
		AIContext: `This project predicts customer churn.

Model choice:
Logistic Regression was chosen for interpretability and clear coefficient explanations.

Features:
User tenure, usage frequency, and contract type.

Trade-offs:
The model is easy to explain but may underperform compared to tree-based models on complex patterns.

Use cases:
Best suited for early-stage analysis or stakeholder-facing insights.`,
		BuiltIn: true,
	},
	{
		Title:       "Resume–JD Matcher",
		Description: "Analyzes how well a resume matches a job description.",
		DemoType:    models.DemoText,
		Skills:      []string{"NLP", "Text Similarity", "UX Design"},
		AIContext: `This project matches resumes to job descriptions.

Approach:
Text similarity and keyword overlap with a focus on transparency.

Trade-offs:
Not a deep learning model, but easier to understand and debug.

Use cases:
Helpful for applicants and recruiters who want quick feedback.`,
		BuiltIn: true,
	},
}

// BuiltIns returns a copy of the catalog.
func BuiltIns() []models.Project {
	out := make([]models.Project, len(builtIns))
	for i, p := range builtIns {
		p.Skills = append([]string(nil), p.Skills...)
		out[i] = p
	}
	return out
}

func builtIn(title string) (models.Project, bool) {
	for _, p := range builtIns {
		if p.Title == title {
			p.Skills = append([]string(nil), p.Skills...)
			return p, true
		}
	}
	return models.Project{}, false
}
