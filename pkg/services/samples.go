package services

import "github.com/ekaya-inc/welfare-nl2sql/pkg/models"

// SampleQuestions returns example questions grouped by topic. Every sample is
// answerable by the pattern fallback, so they work without a model.
func SampleQuestions() []models.SampleCategory {
	return []models.SampleCategory{
		{
			Category: "Citizens",
			Questions: []string{
				"Show all citizens",
				"How many citizens",
				"Show citizens above age 60",
				"Citizens by gender",
				"Citizens by state",
				"Citizens with a disability",
				"Citizens in rural villages",
			},
		},
		{
			Category: "Officers",
			Questions: []string{
				"List officers",
				"How many officers",
				"Officers by designation",
			},
		},
		{
			Category: "Schemes",
			Questions: []string{
				"Show all schemes",
				"How many schemes",
				"Schemes by sector",
				"Enrollments by scheme",
				"Citizens enrolled in multiple schemes",
			},
		},
		{
			Category: "Disbursements",
			Questions: []string{
				"Total disbursement by scheme",
				"Disbursements by state",
				"Disbursements by payment mode",
				"Total amount disbursed",
				"Show recent disbursements",
			},
		},
		{
			Category: "Analytics",
			Questions: []string{
				"Average age of citizens",
				"Citizens by age group",
				"Number of citizens above age 60",
			},
		},
	}
}
