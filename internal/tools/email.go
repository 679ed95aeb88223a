package tools

import (
	"context"
	"fmt"
	"strings"
)

// Email is a drafted message for a hiring manager or recruiter.
type Email struct {
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	RecipientType string `json:"recipientType"`
	Tone          string `json:"tone"`
	Message       string `json:"message"`
}

type emailArgs struct {
	JobID         string `mapstructure:"job_id"`
	RecipientType string `mapstructure:"recipient_type"`
	Tone          string `mapstructure:"tone"`
}

const (
	toneFormal   = "formal"
	toneFriendly = "friendly"
	toneConcise  = "concise"

	recipientHiringManager = "hiring_manager"
	recipientRecruiter     = "recruiter"
)

func (e *Executor) draftEmail(_ context.Context, args Args, state *State) (Result, error) {
	var in emailArgs
	if err := Decode(args, &in); err != nil {
		return Result{}, err
	}

	tone := strings.ToLower(strings.TrimSpace(in.Tone))
	switch tone {
	case "":
		tone = toneFormal
	case toneFormal, toneFriendly, toneConcise:
	default:
		return Result{Error: fmt.Sprintf("unsupported tone %q", in.Tone)}, nil
	}

	recipient := strings.ToLower(strings.TrimSpace(in.RecipientType))
	switch recipient {
	case "":
		recipient = recipientHiringManager
	case recipientHiringManager, recipientRecruiter:
	default:
		return Result{Error: fmt.Sprintf("unsupported recipient %q", in.RecipientType)}, nil
	}

	name := state.Profile.DisplayName()
	title := state.Profile.Title()
	jobID := strings.TrimSpace(in.JobID)

	var ref, jobContext string
	if jobID != "" {
		ref = " - " + jobID
		jobContext = fmt.Sprintf(" for the position (Ref: %s)", jobID)
	}

	var subject, body string
	switch tone {
	case toneFormal:
		subject = fmt.Sprintf("Application for Position%s - %s", ref, name)
		body = fmt.Sprintf(`Dear %s,

I am writing to express my strong interest in this opportunity%s. With my background as %s, I believe I would be a valuable addition to your team.

I would welcome the opportunity to discuss how my skills and experience align with your team's needs.

Thank you for your consideration.

Best regards,
%s`, recipientTitle(recipient), jobContext, title, name)
	case toneFriendly:
		subject = fmt.Sprintf("Excited about the opportunity%s!", ref)
		body = fmt.Sprintf(`Hi there,

I recently came across this position%s and I'm really excited about the possibility of joining your team!

As someone with a background in %s, I've been working on similar challenges and I think I could bring valuable perspective and experience to the role.

Looking forward to connecting!

Best,
%s`, jobContext, title, name)
	default:
		subject = "Application" + ref
		body = fmt.Sprintf(`Hello,

I'm interested in this opportunity%s. My background as %s aligns well with the role requirements.

I'd appreciate the chance to discuss this further.

Best regards,
%s`, jobContext, title, name)
	}

	return Result{
		Success: true,
		Data: Email{
			Subject:       subject,
			Body:          body,
			RecipientType: recipient,
			Tone:          tone,
			Message:       "Email draft generated. Review and customize before sending.",
		},
		Summary: fmt.Sprintf("drafted %s email to %s", tone, strings.ReplaceAll(recipient, "_", " ")),
	}, nil
}

func recipientTitle(recipient string) string {
	if recipient == recipientRecruiter {
		return "Recruiter"
	}
	return "Hiring Manager"
}
