// Package careers declares the career guidance flows and the helpers around them:
// the roadmap catalog, cover letter job fetching and chat sessions.
package careers

import (
	"fmt"
	"strings"

	"github.com/jonathan/career-compass/internal/flow"
	"github.com/jonathan/career-compass/internal/ingestion"
	"github.com/jonathan/career-compass/internal/llm"
	"github.com/jonathan/career-compass/internal/prompts"
	"github.com/jonathan/career-compass/internal/schemas"
	"github.com/jonathan/career-compass/internal/types"
)

// Flow names.
const (
	FlowCareerChat        = "career-chat"
	FlowCareerSuggestions = "career-suggestions"
	FlowResumeTuning      = "resume-tuning"
	FlowResumeCorrection  = "resume-correction"
	FlowCareerRoadmap     = "career-roadmap"
	FlowRefineDescription = "refine-description"
	FlowNetworking        = "networking"
	FlowGoalSetting       = "goal-setting"
	FlowCoverLetter       = "cover-letter"
	FlowJobListings       = "job-listings"
)

var (
	CareerChat = flow.MustNew(flow.Definition[types.CareerChatInput, types.CareerChatOutput]{
		Name:        FlowCareerChat,
		Description: "Answer a student's career question in the context of the conversation so far.",
		Render: func(in types.CareerChatInput) (flow.Prompt, error) {
			return render(FlowCareerChat, map[string]string{
				"message":     in.Message,
				"chatHistory": types.RenderTurns(in.ChatHistory),
			})
		},
		Finish: func(out *types.CareerChatOutput) {
			out.Response = strings.TrimSpace(out.Response)
		},
	}, schemas.Default())

	CareerSuggestions = flow.MustNew(flow.Definition[types.CareerSuggestionsInput, types.CareerSuggestionsOutput]{
		Name:        FlowCareerSuggestions,
		Description: "Suggest careers that fit a profile of interests and skills.",
		Render: func(in types.CareerSuggestionsInput) (flow.Prompt, error) {
			return render(FlowCareerSuggestions, map[string]string{"profile": in.Profile})
		},
	}, schemas.Default())

	ResumeTuning = flow.MustNew(flow.Definition[types.ResumeInput, types.ResumeTuningOutput]{
		Name:        FlowResumeTuning,
		Description: "Review a resume and decide whether it can be reformatted automatically.",
		Render: func(in types.ResumeInput) (flow.Prompt, error) {
			return renderResume(FlowResumeTuning, in)
		},
	}, schemas.Default())

	ResumeCorrection = flow.MustNew(flow.Definition[types.ResumeInput, types.ResumeCorrectionOutput]{
		Name:        FlowResumeCorrection,
		Description: "Restructure a resume into a standard professional layout.",
		Tier:        llm.TierAdvanced,
		Render: func(in types.ResumeInput) (flow.Prompt, error) {
			return renderResume(FlowResumeCorrection, in)
		},
		Finish: func(out *types.ResumeCorrectionOutput) {
			out.CorrectedContent = strings.TrimSpace(out.CorrectedContent)
		},
	}, schemas.Default())

	CareerRoadmap = flow.MustNew(flow.Definition[types.CareerRoadmapInput, types.CareerRoadmapOutput]{
		Name:        FlowCareerRoadmap,
		Description: "Generate a step-by-step learning roadmap for a career.",
		Render: func(in types.CareerRoadmapInput) (flow.Prompt, error) {
			return render(FlowCareerRoadmap, map[string]string{"career": in.Career})
		},
	}, schemas.Default())

	RefineDescription = flow.MustNew(flow.Definition[types.RefineDescriptionInput, types.RefineDescriptionOutput]{
		Name:        FlowRefineDescription,
		Description: "Rewrite a self-description of interests and skills in professional language.",
		Tier:        llm.TierLite,
		Render: func(in types.RefineDescriptionInput) (flow.Prompt, error) {
			return render(FlowRefineDescription, map[string]string{"description": in.Description})
		},
	}, schemas.Default())

	Networking = flow.MustNew(flow.Definition[types.NetworkingInput, types.NetworkingOutput]{
		Name:        FlowNetworking,
		Description: "Suggest professional titles to contact and draft a connection request.",
		Tier:        llm.TierLite,
		Render: func(in types.NetworkingInput) (flow.Prompt, error) {
			return render(FlowNetworking, map[string]string{"field": in.Field, "goal": in.Goal})
		},
	}, schemas.Default())

	GoalSetting = flow.MustNew(flow.Definition[types.GoalSettingInput, types.GoalSettingOutput]{
		Name:        FlowGoalSetting,
		Description: "Turn a career goal into a SMART goal with measurable steps.",
		Render: func(in types.GoalSettingInput) (flow.Prompt, error) {
			return render(FlowGoalSetting, map[string]string{"goal": in.Goal, "timeframe": in.Timeframe})
		},
	}, schemas.Default())

	CoverLetter = flow.MustNew(flow.Definition[types.CoverLetterInput, types.CoverLetterOutput]{
		Name:        FlowCoverLetter,
		Description: "Write a cover letter for a job from its description and the applicant's skills.",
		Render: func(in types.CoverLetterInput) (flow.Prompt, error) {
			return render(FlowCoverLetter, map[string]string{
				"jobTitle":       in.JobTitle,
				"companyName":    in.CompanyName,
				"jobDescription": in.JobDescription,
				"userSkills":     in.UserSkills,
			})
		},
		Finish: func(out *types.CoverLetterOutput) {
			out.CoverLetter = strings.TrimSpace(out.CoverLetter)
		},
	}, schemas.Default())

	JobListings = flow.MustNew(flow.Definition[types.JobListingsInput, types.JobListingsOutput]{
		Name:        FlowJobListings,
		Description: "Generate 5 to 7 realistic sample job postings for a search query.",
		Tier:        llm.TierLite,
		Render: func(in types.JobListingsInput) (flow.Prompt, error) {
			return render(FlowJobListings, map[string]string{"query": in.Query})
		},
	}, schemas.Default())
)

// All returns every flow as a Runner.
func All() []flow.Runner {
	return []flow.Runner{
		CareerChat,
		CareerSuggestions,
		ResumeTuning,
		ResumeCorrection,
		CareerRoadmap,
		RefineDescription,
		Networking,
		GoalSetting,
		CoverLetter,
		JobListings,
	}
}

// NewRegistry returns a registry holding every flow. It panics when the flows
// and the embedded templates disagree.
func NewRegistry() *flow.Registry {
	r, err := flow.NewRegistry(All()...)
	if err != nil {
		panic(err)
	}
	if err := checkTemplates(r.Names()); err != nil {
		panic(err)
	}
	return r
}

// checkTemplates reports flows without a template and templates without a flow.
func checkTemplates(names []string) error {
	keys, err := prompts.List(prompts.FlowsFile)
	if err != nil {
		return err
	}
	templates := make(map[string]bool, len(keys))
	for _, k := range keys {
		templates[k] = true
	}

	var problems []string
	for _, name := range names {
		if !templates[name] {
			problems = append(problems, "no template for flow "+name)
		}
		delete(templates, name)
	}
	for _, k := range keys {
		if templates[k] {
			problems = append(problems, "template "+k+" has no flow")
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s: %s", prompts.FlowsFile, strings.Join(problems, "; "))
	}
	return nil
}

func render(key string, fields map[string]string) (flow.Prompt, error) {
	template, err := prompts.Get(prompts.FlowsFile, key)
	if err != nil {
		return flow.Prompt{}, err
	}
	return flow.Prompt{Text: prompts.Format(template, fields)}, nil
}

// renderResume inlines the resume text when it can be extracted and otherwise
// sends the document as an attachment.
func renderResume(key string, in types.ResumeInput) (flow.Prompt, error) {
	doc, err := ingestion.PrepareDocument(in.ResumeDataURI)
	if err != nil {
		return flow.Prompt{}, &flow.ValidationError{Message: "resume could not be read", Cause: err}
	}
	if doc.Inline() {
		return render(key, map[string]string{"resumeDataUri": doc.Text})
	}

	p, err := render(key, map[string]string{
		"resumeDataUri": fmt.Sprintf("(attached as %s)", doc.MIMEType),
	})
	if err != nil {
		return flow.Prompt{}, err
	}
	p.Parts = []llm.Part{*doc.Attachment}
	return p, nil
}
