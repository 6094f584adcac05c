package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	apperrors "peerlink/internal/platform/errors"
)

type Skill struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Level int    `json:"level"`
}

type Project struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Status    string   `json:"status"`
	FinalMark *float64 `json:"finalMark,omitempty"`
	UpdatedAt string   `json:"updatedAt"`
	Team      []string `json:"team,omitempty"`
}

type Badge struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	Description string `json:"description"`
	AwardedAt   string `json:"awardedAt"`
}

type Logtime struct {
	Date    string `json:"date"`
	Hours   int    `json:"hours"`
	Minutes int    `json:"minutes"`
}

// LogtimeSummary holds either a per-day history or an average, never both.
type LogtimeSummary struct {
	History []Logtime `json:"logtime,omitempty"`
	Average *float64  `json:"average,omitempty"`
}

type Feedback struct {
	Punctuality  int `json:"punctuality"`
	Interest     int `json:"interest"`
	Thoroughness int `json:"thoroughness"`
	Friendliness int `json:"friendliness"`
}

type Coalition struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
	Color    string `json:"color"`
	Score    int64  `json:"score"`
	Rank     int64  `json:"rank"`
}

type Workstation struct {
	Location string `json:"location"`
	Host     string `json:"host"`
	IsActive bool   `json:"isActive"`
}

type XPEntry struct {
	Date     string `json:"date"`
	ExpValue int64  `json:"expValue"`
}

type Course struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// ParticipantProfile is assembled in one step by Normalizer.Assemble and is
// never handed out partially filled.
type ParticipantProfile struct {
	Login          string `json:"login"`
	Email          string `json:"email"`
	ClassName      string `json:"className"`
	ParallelName   string `json:"parallelName"`
	Campus         string `json:"campus"`
	AvatarURL      string `json:"avatarUrl,omitempty"`
	Level          int64  `json:"level"`
	ExpValue       int64  `json:"expValue"`
	ExpToNextLevel int64  `json:"expToNextLevel"`

	Skills         []Skill   `json:"skills"`
	Projects       []Project `json:"projects"`
	Badges         []Badge   `json:"badges"`
	Logtime        []Logtime `json:"logtime"`
	AverageLogtime *float64  `json:"averageLogtime,omitempty"`

	Feedback    *Feedback    `json:"feedback,omitempty"`
	XPHistory   []XPEntry    `json:"xpHistory,omitempty"`
	Courses     []Course     `json:"courses,omitempty"`
	Coalition   *Coalition   `json:"coalition,omitempty"`
	Workstation *Workstation `json:"workstation,omitempty"`

	LoadedAt time.Time `json:"loadedAt"`
}

// FreshAt reports whether a cached profile is still inside ttl at now.
func (p ParticipantProfile) FreshAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(p.LoadedAt) < ttl
}

type Resource string

const (
	ResourceSkills      Resource = "skills"
	ResourceProjects    Resource = "projects"
	ResourceBadges      Resource = "badges"
	ResourceLogtime     Resource = "logtime"
	ResourceFeedback    Resource = "feedback"
	ResourceXPHistory   Resource = "experience-history"
	ResourceCourses     Resource = "courses"
	ResourceCoalition   Resource = "coalition"
	ResourceWorkstation Resource = "workstation"
)

var OptionalResources = []Resource{
	ResourceSkills,
	ResourceProjects,
	ResourceBadges,
	ResourceLogtime,
	ResourceFeedback,
	ResourceXPHistory,
	ResourceCourses,
	ResourceCoalition,
	ResourceWorkstation,
}

// NormalizeLogin trims and lowercases a login and rejects values that cannot
// be a participant login.
func NormalizeLogin(login string) (string, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	if login == "" {
		return "", fmt.Errorf("%w: login is required", apperrors.ErrInvalidInput)
	}
	if strings.ContainsAny(login, "/?#") {
		return "", fmt.Errorf("%w: login %q contains invalid characters", apperrors.ErrInvalidInput, login)
	}
	return login, nil
}

func CoreEndpoint(login string) string {
	return "/participants/" + url.PathEscape(login)
}

func ResourceEndpoint(login string, resource Resource) string {
	return CoreEndpoint(login) + "/" + string(resource)
}
