package models

import (
	"strings"
	"time"
)

type DemoType string

const (
	DemoNone   DemoType = ""
	DemoSlider DemoType = "slider"
	DemoText   DemoType = "text"
)

func (d DemoType) Valid() bool {
	switch d {
	case DemoNone, DemoSlider, DemoText:
		return true
	}
	return false
}

// Project is a portfolio entry. Title is the natural key.
type Project struct {
	ID          int64    `json:"id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
	DemoType    DemoType `json:"demo_type"`
	AIContext   string   `json:"ai_context"`
	BuiltIn     bool     `json:"built_in"`
}

// ProjectDraft is what the structured extractor produces from a document.
// Skills stays comma-joined until the draft is confirmed.
type ProjectDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Skills      string `json:"skills"`
	AIContext   string `json:"ai_context"`
}

// ToProject converts a confirmed draft into a project.
func (d ProjectDraft) ToProject(demo DemoType) Project {
	return Project{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Skills:      ParseSkillList(d.Skills),
		DemoType:    demo,
		AIContext:   strings.TrimSpace(d.AIContext),
	}
}

// Interaction is one logged question. JSON names are the column names the
// analytics view reads.
type Interaction struct {
	Timestamp time.Time `json:"Timestamp"`
	Project   string    `json:"Project"`
	Question  string    `json:"Question"`
}

const (
	ColumnTimestamp = "Timestamp"
	ColumnProject   = "Project"
	ColumnQuestion  = "Question"
)

// InteractionColumns is the public column order of the interaction log.
var InteractionColumns = []string{ColumnTimestamp, ColumnProject, ColumnQuestion}

// TimestampLayout is the on-disk and display format of interaction timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

const skillSeparator = ","

// JoinSkills is the storage form of a skills list. It is the exact inverse of
// SplitSkills for skill names without commas.
func JoinSkills(skills []string) string {
	return strings.Join(skills, skillSeparator)
}

func SplitSkills(stored string) []string {
	if stored == "" {
		return []string{}
	}
	return strings.Split(stored, skillSeparator)
}

// ParseSkillList reads human or model written lists like "Python, SQL, ".
func ParseSkillList(s string) []string {
	skills := []string{}
	for _, part := range strings.Split(s, skillSeparator) {
		if p := strings.TrimSpace(part); p != "" {
			skills = append(skills, p)
		}
	}
	return skills
}
