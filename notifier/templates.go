package notifier

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"taskboard/model"
	"taskboard/workflow"
)

type content struct {
	subject string
	heading string
	intro   string
}

var contents = map[workflow.Template]content{
	workflow.TemplateNewTask: {
		subject: "New task: %s",
		heading: "A new task was requested",
		intro:   "A team has submitted a new task for the developer.",
	},
	workflow.TemplateTaskUpdated: {
		subject: "Task updated: %s",
		heading: "A task was updated",
		intro:   "The details of this task have changed.",
	},
	workflow.TemplateTaskStarted: {
		subject: "Work started: %s",
		heading: "Your task is in progress",
		intro:   "The developer has started working on your task.",
	},
	workflow.TemplateTaskCompleted: {
		subject: "Task completed: %s",
		heading: "A task was marked as done",
		intro:   "The requesting team has confirmed this task is finished.",
	},
	workflow.TemplateTaskOverdue: {
		subject: "Task overdue: %s",
		heading: "A task is past its due date",
		intro:   "This task passed its due date and is not finished yet.",
	},
}

var priorityLabels = map[workflow.Priority]string{
	workflow.PriorityLow:    "Low",
	workflow.PriorityMedium: "Medium",
	workflow.PriorityHigh:   "High",
}

var mailTemplate = template.Must(template.New("mail").Parse(`<table width="600" cellpadding="0" cellspacing="0" border="0" style="font-family:Arial">
  <tr><td bgcolor="#1e293b" style="padding:16px;color:#ffffff"><h2 style="margin:0">{{.Heading}}</h2></td></tr>
  <tr><td style="padding:16px;color:#333333">
    <p>{{.Intro}}</p>
    <table cellpadding="4" cellspacing="0" border="0">
      <tr><td><strong>Title</strong></td><td>{{.Task.Title}}</td></tr>
      <tr><td><strong>Team</strong></td><td>{{.Task.Team}}</td></tr>
      <tr><td><strong>Priority</strong></td><td>{{.Priority}}</td></tr>
      <tr><td><strong>Status</strong></td><td>{{.Status}}</td></tr>
      {{if .Due}}<tr><td><strong>Due</strong></td><td>{{.Due}}</td></tr>{{end}}
    </table>
    {{if .Task.Description}}<p>{{.Task.Description}}</p>{{end}}
    <p><a href="{{.Link}}">Open task</a></p>
  </td></tr>
</table>`))

type mailData struct {
	Heading  string
	Intro    string
	Task     model.Task
	Priority string
	Status   string
	Due      string
	Link     string
}

// Render builds the subject and bodies for a template. baseURL is the board's public address.
func Render(kind workflow.Template, task model.Task, baseURL string) (Message, error) {
	c, ok := contents[kind]
	if !ok {
		return Message{}, fmt.Errorf("unknown template %q", kind)
	}

	link := TaskLink(baseURL, task.ID)
	data := mailData{
		Heading:  c.heading,
		Intro:    c.intro,
		Task:     task,
		Priority: priorityLabels[task.Priority],
		Status:   task.Status.String(),
		Link:     link,
	}
	if task.DueDate != nil {
		data.Due = task.DueDate.Format("2006-01-02")
	}

	var buf bytes.Buffer
	if err := mailTemplate.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("execute %s template: %w", kind, err)
	}

	return Message{
		Template: kind,
		Subject:  fmt.Sprintf(c.subject, task.Title),
		HTML:     buf.String(),
		Text:     c.intro,
		Data: map[string]string{
			"taskId":   strconv.FormatUint(uint64(task.ID), 10),
			"template": string(kind),
			"link":     link,
		},
	}, nil
}

func TaskLink(baseURL string, id uint) string {
	return fmt.Sprintf("%s/tasks/%d", strings.TrimRight(baseURL, "/"), id)
}
