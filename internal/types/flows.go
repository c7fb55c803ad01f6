package types

// CareerChatInput is a student message plus the conversation so far.
type CareerChatInput struct {
	Message     string     `json:"message" validate:"required"`
	ChatHistory []ChatTurn `json:"chatHistory,omitempty" validate:"omitempty,dive"`
}

// CareerChatOutput is the mentor's reply.
type CareerChatOutput struct {
	Response string `json:"response"`
}

// CareerSuggestionsInput is a free-text profile.
type CareerSuggestionsInput struct {
	Profile string `json:"profile" validate:"required"`
}

// CareerSuggestionsOutput lists careers that fit the profile.
type CareerSuggestionsOutput struct {
	CareerSuggestions []string `json:"careerSuggestions"`
}

// ResumeInput carries a resume document as a base64 data URI.
type ResumeInput struct {
	ResumeDataURI string `json:"resumeDataUri" validate:"required,datauri"`
}

// ResumeTuningOutput is review feedback plus whether the document can be corrected automatically.
type ResumeTuningOutput struct {
	Feedback  string `json:"feedback"`
	IsFixable bool   `json:"isFixable"`
}

// ResumeCorrectionOutput is the restructured resume text.
type ResumeCorrectionOutput struct {
	CorrectedContent string `json:"correctedContent"`
}

// CareerRoadmapInput names the career to plan for.
type CareerRoadmapInput struct {
	Career string `json:"career" validate:"required"`
}

// RoadmapStep is one stage of a roadmap.
type RoadmapStep struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CareerRoadmapOutput is an ordered learning roadmap.
type CareerRoadmapOutput struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Steps       []RoadmapStep `json:"steps"`
}

// RefineDescriptionInput is a raw self-description.
type RefineDescriptionInput struct {
	Description string `json:"description" validate:"required"`
}

// RefineDescriptionOutput is the polished description.
type RefineDescriptionOutput struct {
	RefinedDescription string `json:"refinedDescription"`
}

// NetworkingInput describes who the user wants to reach and why.
type NetworkingInput struct {
	Field string `json:"field" validate:"required"`
	Goal  string `json:"goal" validate:"required"`
}

// NetworkingOutput lists titles to search for and a connection message template.
type NetworkingOutput struct {
	ProfessionalTitles []string `json:"professionalTitles"`
	ConnectionMessage  string   `json:"connectionMessage"`
}

// GoalSettingInput is a career goal and the timeframe to reach it.
type GoalSettingInput struct {
	Goal      string `json:"goal" validate:"required"`
	Timeframe string `json:"timeframe" validate:"required"`
}

// GoalStep is one measurable step toward a goal.
type GoalStep struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Metric      string `json:"metric"`
}

// GoalSettingOutput is a SMART goal broken into steps.
type GoalSettingOutput struct {
	Title     string     `json:"title"`
	SmartGoal string     `json:"smartGoal"`
	Steps     []GoalStep `json:"steps"`
}

// CoverLetterInput describes the job and the applicant.
type CoverLetterInput struct {
	JobTitle       string `json:"jobTitle" validate:"required"`
	CompanyName    string `json:"companyName" validate:"required"`
	JobDescription string `json:"jobDescription" validate:"required"`
	UserSkills     string `json:"userSkills" validate:"required"`
}

// CoverLetterOutput is the generated letter.
type CoverLetterOutput struct {
	CoverLetter string `json:"coverLetter"`
}

// JobListingsInput is a job search query.
type JobListingsInput struct {
	Query string `json:"query" validate:"required"`
}

// JobListing is one generated sample posting. URL is always "#".
type JobListing struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// JobListingsOutput holds 5 to 7 sample postings.
type JobListingsOutput struct {
	Jobs []JobListing `json:"jobs"`
}

// CoverLetterRequest is the cover letter form. When JobDescription is empty the
// posting at JobURL is fetched and used instead.
type CoverLetterRequest struct {
	JobTitle       string `json:"jobTitle" validate:"required"`
	CompanyName    string `json:"companyName" validate:"required"`
	JobDescription string `json:"jobDescription,omitempty" validate:"required_without=JobURL"`
	JobURL         string `json:"jobUrl,omitempty" validate:"omitempty,http_url"`
	UserSkills     string `json:"userSkills" validate:"required"`
}
