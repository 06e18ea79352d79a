package service

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"github.com/PritStyling132/NEXUS-sub000/internal/modules/model"
	"github.com/google/uuid"
)

var announcementTmpl = template.Must(template.New("announcement").Parse(`<!DOCTYPE html>
<html>
<body style="font-family:Arial,Helvetica,sans-serif;color:#111827;">
  <h2>{{if .IsInstant}}🔴 {{.HostName}} is live now{{else}}📅 New live session scheduled{{end}}</h2>
  <p>Hi {{.RecipientName}},</p>
  <p>
    {{.HostName}} {{if .IsInstant}}just started{{else}}scheduled{{end}}
    <strong>{{.Title}}</strong> for <strong>{{.CourseTitle}}</strong> in {{.GroupName}}.
  </p>
  {{if .Description}}<p>{{.Description}}</p>{{end}}
  {{if .ScheduledAt}}<p>When: {{.ScheduledAt}}</p>{{end}}
  <p><a href="{{.JoinURL}}" style="background:#4f46e5;color:#fff;padding:10px 18px;border-radius:6px;text-decoration:none;">
    {{if .IsInstant}}Join now{{else}}View session{{end}}
  </a></p>
</body>
</html>`))

type announcementView struct {
	RecipientName string
	HostName      string
	Title         string
	Description   string
	CourseTitle   string
	GroupName     string
	ScheduledAt   string
	JoinURL       string
	IsInstant     bool
}

// Announcement is everything the fan-out needs about a freshly created session.
type Announcement struct {
	Session     model.LiveSession
	OwnerID     uuid.UUID
	GroupName   string
	CourseTitle string
}

func announcementSubject(ls *model.LiveSession) string {
	if ls.IsInstant {
		return "🔴 LIVE NOW: " + ls.Title
	}
	return "📅 Upcoming Live Session: " + ls.Title
}

func (a *Announcement) view(recipient, host, appBaseURL string) announcementView {
	ls := &a.Session
	v := announcementView{
		RecipientName: recipient,
		HostName:      host,
		Title:         ls.Title,
		CourseTitle:   a.CourseTitle,
		GroupName:     a.GroupName,
		JoinURL:       strings.TrimRight(appBaseURL, "/") + "/live-sessions/" + ls.ID.String(),
		IsInstant:     ls.IsInstant,
	}
	if ls.Description != nil {
		v.Description = *ls.Description
	}
	if ls.ScheduledAt != nil {
		v.ScheduledAt = ls.ScheduledAt.UTC().Format(time.RFC1123)
	}
	if v.HostName == "" {
		v.HostName = "Your group owner"
	}
	if v.RecipientName == "" {
		v.RecipientName = "there"
	}
	return v
}

func renderAnnouncement(v announcementView) (string, error) {
	var buf bytes.Buffer
	if err := announcementTmpl.Execute(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// notificationText is the in-app title and message for one announcement.
func (a *Announcement) notificationText(host string) (title, message string) {
	ls := &a.Session
	if host == "" {
		host = "Your group owner"
	}
	if ls.IsInstant {
		return "🔴 Live now: " + ls.Title, host + " started a live session in " + a.CourseTitle + "."
	}
	when := ""
	if ls.ScheduledAt != nil {
		when = " for " + ls.ScheduledAt.UTC().Format(time.RFC1123)
	}
	return "📅 Live session scheduled: " + ls.Title, host + " scheduled a live session in " + a.CourseTitle + when + "."
}
