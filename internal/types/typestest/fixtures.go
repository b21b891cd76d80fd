// Package typestest provides shared fixtures for pipeline tests.
package typestest

import "github.com/jonathan/job-agent/internal/types"

// DataEngineeringJob is a data engineering posting that asks for AWS.
func DataEngineeringJob() *types.JobSummary {
	return &types.JobSummary{
		Title:          "Senior Data Engineer",
		RoleSummary:    "Build and operate batch and streaming data pipelines on AWS.",
		CompanyContext: "Initech is a logistics company modernizing its analytics platform.",
		Responsibilities: []string{
			"Design ETL pipelines for shipment data",
			"Maintain Airflow DAGs",
		},
		Requirements: []string{
			"AWS",
			"Spark or PySpark",
			"Python",
			"SQL",
		},
	}
}

// MultiTrackProfile has a data engineering track declared after a teaching
// track, so the job must outscore declaration order to select it.
func MultiTrackProfile() *types.Profile {
	return &types.Profile{
		Tracks: []types.Track{
			{
				Name: "Teaching",
				CareerTrack: types.CareerTrack{
					AchievementSample: "Taught high school mathematics for five years and mentored new teachers.",
					EducationProfile:  "M.Ed. Secondary Education, Lakeside College.",
					MotivationGoals:   "I enjoy helping students grow.",
				},
			},
			{
				Name: "Data Engineering",
				CareerTrack: types.CareerTrack{
					AchievementSample: "Built ETL pipelines processing 10TB/day on AWS with PySpark and Airflow at Acme Corporation.",
					EducationProfile:  "B.S. Computer Science, State University.",
					MotivationGoals:   "I want to build reliable data platforms that teams can trust.",
					ContentGuidance:   "Keep it concise and lead with impact.",
				},
			},
		},
		EducationBackground: "B.S. Computer Science, State University, 2016.",
		Motivation:          "Looking for a data role with ownership of the platform.",
	}
}

// DataEngineeringFilteredProfile is a FilteredProfile consistent with
// MultiTrackProfile and DataEngineeringJob.
func DataEngineeringFilteredProfile() *types.FilteredProfile {
	return &types.FilteredProfile{
		SelectedTrack:  "Data Engineering",
		RelevantSkills: []string{"AWS", "PySpark", "Airflow"},
		RelevantExperience: []string{
			"Built ETL pipelines processing 10TB/day on AWS with PySpark and Airflow at Acme Corporation.",
		},
		RelevantEducation:     []string{"B.S. Computer Science, State University."},
		MotivationalAlignment: "I want to build reliable data platforms that teams can trust.",
		ContentGuidance:       "Keep it concise and lead with impact.",
	}
}

// CoverLetter is a grounded cover letter for the data engineering fixtures.
func CoverLetter() types.GeneratedContent {
	return types.NewCoverLetterContent(types.CoverLetter{
		Title: "Application for Senior Data Engineer",
		Body: "Dear Hiring Manager,\n\n" +
			"I am excited to apply for the Senior Data Engineer role at Initech. " +
			"At Acme Corporation I built ETL pipelines processing 10TB/day on AWS with PySpark and Airflow. " +
			"My B.S. in Computer Science from State University gave me a strong foundation.\n\n" +
			"I want to build reliable data platforms that teams can trust.\n\n" +
			"Sincerely,\n[Your Name]",
		KeyPointsUsed: []string{
			"ETL pipelines processing 10TB/day on AWS",
			"B.S. Computer Science",
		},
	})
}
