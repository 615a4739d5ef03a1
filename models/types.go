// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Question direction constants
const (
	DirectionLeft  = "Left"
	DirectionRight = "Right"
)

// Vote type constants
const (
	VoteUp   = "upvote"
	VoteDown = "downvote"
)

// Answer label constants (5-point scale)
const (
	LabelStronglyAgree    = "Strongly Agree"
	LabelAgree            = "Agree"
	LabelNeutral          = "Neutral"
	LabelDisagree         = "Disagree"
	LabelStronglyDisagree = "Strongly Disagree"
)

var labelValues = map[string]int{
	LabelStronglyAgree:    2,
	LabelAgree:            1,
	LabelNeutral:          0,
	LabelDisagree:         -1,
	LabelStronglyDisagree: -2,
}

// AnswerValue converts a 5-point label into its signed value (-2..2).
func AnswerValue(label string) (int, bool) {
	v, ok := labelValues[label]
	return v, ok
}

// Domain types

type Question struct {
	ID             string    `json:"id"`
	Axis           string    `json:"axis"`
	Topic          string    `json:"topic"`
	Text           string    `json:"text"`
	Direction      string    `json:"direction"`
	WeightAgree    int       `json:"weight_agree"`
	WeightDisagree int       `json:"weight_disagree"`
	Weight         int       `json:"weight"` // single weight used when scoring icons
	IsActive       bool      `json:"is_active"`
	InShortQuiz    bool      `json:"in_short_quiz"`
	CreatedAt      time.Time `json:"created_at"`
}

type Source struct {
	Title       string `json:"title" validate:"required,max=300"`
	URL         string `json:"url" validate:"required,url"`
	Description string `json:"description,omitempty" validate:"max=1000"`
	Type        string `json:"type" validate:"omitempty,oneof=article book video interview speech legislation other"`
}

type CounterEvidence struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

type IconAnswer struct {
	ID          string    `json:"id"`
	IconID      string    `json:"icon_id"`
	QuestionID  string    `json:"question_id"`
	Answer      string    `json:"answer"`
	AnswerValue int       `json:"answer_value"`
	Sources     []Source  `json:"sources"`
	Reasoning   string    `json:"reasoning,omitempty"`
	SubmittedBy string    `json:"submitted_by"`
	Upvotes     int       `json:"upvotes"`
	Downvotes   int       `json:"downvotes"`
	NetVotes    int       `json:"net_votes"`
	IsAccepted  bool      `json:"is_accepted"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type IconVote struct {
	ID              string           `json:"id"`
	UserID          string           `json:"-"`
	AnswerID        string           `json:"answer_id"`
	VoteType        string           `json:"vote_type"`
	CounterEvidence *CounterEvidence `json:"counter_evidence,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// AxisScores holds an icon's cached score per axis key, each in [-100, 100].
type AxisScores struct {
	Economic  int `json:"economic"`
	Authority int `json:"authority"`
	Social    int `json:"social"`
	Foreign   int `json:"foreign"`
	Religion  int `json:"religion"`
}

// ByKey returns the score for an axis key, or 0 for an unknown key.
func (s AxisScores) ByKey(key string) int {
	switch key {
	case "economic":
		return s.Economic
	case "authority":
		return s.Authority
	case "social":
		return s.Social
	case "foreign":
		return s.Foreign
	case "religion":
		return s.Religion
	}
	return 0
}

// Set stores v under an axis key. Unknown keys are ignored.
func (s *AxisScores) Set(key string, v int) {
	switch key {
	case "economic":
		s.Economic = v
	case "authority":
		s.Authority = v
	case "social":
		s.Social = v
	case "foreign":
		s.Foreign = v
	case "religion":
		s.Religion = v
	}
}

type Icon struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	ExternalID      string     `json:"external_id,omitempty"`
	Description     string     `json:"description,omitempty"`
	ImageURL        string     `json:"image_url,omitempty"`
	Scores          AxisScores `json:"scores"`
	TotalAnswers    int        `json:"total_answers"`
	IsActive        bool       `json:"is_active"`
	CreatedBy       string     `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	ScoresUpdatedAt *time.Time `json:"scores_updated_at,omitempty"`
}

// Scoring result types

type AxisResult struct {
	AxisKey      string  `json:"axis_key"`
	Axis         string  `json:"axis"`
	RawScore     int     `json:"raw_score"`
	Answered     int     `json:"answered"`
	Normalized   int     `json:"normalized"`
	RightPercent float64 `json:"right_percent"`
	DominantPole string  `json:"dominant_pole"`
}

// Compass is a 2-D plot position, each coordinate in [-1, 1].
type Compass struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type VoteOutcome struct {
	AnswerID          string `json:"answer_id"`
	Upvotes           int    `json:"upvotes"`
	Downvotes         int    `json:"downvotes"`
	NetVotes          int    `json:"net_votes"`
	IsUpdate          bool   `json:"is_update"`
	Changed           bool   `json:"changed"`
	AcceptedAnswerID  string `json:"accepted_answer_id"`
	AcceptanceChanged bool   `json:"acceptance_changed"`
}

// Request types

type CreateQuestionRequest struct {
	Axis           string `json:"axis" validate:"required"`
	Topic          string `json:"topic" validate:"required,max=200"`
	Text           string `json:"text" validate:"required,max=1000"`
	Direction      string `json:"direction" validate:"required,oneof=Left Right"`
	WeightAgree    int    `json:"weight_agree" validate:"required,min=1,max=5"`
	WeightDisagree int    `json:"weight_disagree" validate:"required,min=1,max=5"`
	Weight         int    `json:"weight" validate:"omitempty,min=1,max=5"`
	InShortQuiz    bool   `json:"in_short_quiz"`
}

type UpdateQuestionRequest struct {
	Axis           *string `json:"axis,omitempty" validate:"omitempty,min=1"`
	Topic          *string `json:"topic,omitempty" validate:"omitempty,min=1,max=200"`
	Text           *string `json:"text,omitempty" validate:"omitempty,min=1,max=1000"`
	Direction      *string `json:"direction,omitempty" validate:"omitempty,oneof=Left Right"`
	WeightAgree    *int    `json:"weight_agree,omitempty" validate:"omitempty,min=1,max=5"`
	WeightDisagree *int    `json:"weight_disagree,omitempty" validate:"omitempty,min=1,max=5"`
	Weight         *int    `json:"weight,omitempty" validate:"omitempty,min=1,max=5"`
	InShortQuiz    *bool   `json:"in_short_quiz,omitempty"`
}

// question_id -> answer value (-2..2)
type ScoreQuizRequest struct {
	Answers map[string]int `json:"answers" validate:"required,min=1"`
}

type CreateIconRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	ExternalID  string `json:"external_id" validate:"max=200"`
	Description string `json:"description" validate:"max=2000"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
}

type SubmitAnswerRequest struct {
	QuestionID string   `json:"question_id" validate:"required"`
	Answer     string   `json:"answer" validate:"required"`
	Sources    []Source `json:"sources" validate:"required,min=1,max=10,dive"`
	Reasoning  string   `json:"reasoning" validate:"max=5000"`
}

type UpdateAnswerRequest struct {
	Answer    *string   `json:"answer,omitempty"`
	Sources   *[]Source `json:"sources,omitempty" validate:"omitempty,min=1,max=10,dive"`
	Reasoning *string   `json:"reasoning,omitempty" validate:"omitempty,max=5000"`
}

type RecordVoteRequest struct {
	VoteType        string           `json:"vote_type" validate:"required"`
	CounterEvidence *CounterEvidence `json:"counter_evidence,omitempty"`
}

// Response types

type ScoreQuizResponse struct {
	Results []AxisResult `json:"results"`
	Compass Compass      `json:"compass"`
	// Answers to questions deactivated after the quiz was loaded.
	IgnoredQuestions []string `json:"ignored_questions,omitempty"`
}

type CreateIconResponse struct {
	IconID   string `json:"icon_id"`
	AdminKey string `json:"admin_key"`
}

// IconDetailResponse presents an icon's cached scores the same way quiz
// results are presented.
type IconDetailResponse struct {
	Icon    Icon         `json:"icon"`
	Results []AxisResult `json:"results"`
	Compass Compass      `json:"compass"`
}

type QuestionAnswers struct {
	Question Question     `json:"question"`
	Answers  []IconAnswer `json:"answers"`
}

type IconAnswersResponse struct {
	Icon      Icon              `json:"icon"`
	Questions []QuestionAnswers `json:"questions"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
