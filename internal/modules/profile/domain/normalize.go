package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	apperrors "peerlink/internal/platform/errors"
)

const (
	unknownSkill      = "Unknown"
	unknownProject    = "Unknown Project"
	defaultStatus     = "unavailable"
	defaultBadgeName  = "Badge"
	unknownCoalition  = "Unknown"
	defaultColor      = "#ffffff"
	unknownLocation   = "Unknown"
	unknownHost       = "-"
	unknownIdentifier = "-"
)

// Normalizer maps upstream payloads of any known shape onto the canonical
// profile types. It is pure: the same inputs always give the same output,
// and feeding a canonical value back in returns it unchanged.
type Normalizer struct {
	// Origin resolves relative image paths such as "/img/badge.png".
	Origin string
	// EmailDomain builds <login>@<domain> when the core record has no email.
	EmailDomain string
	// FetchedAt stands in for every missing date and stamps LoadedAt.
	FetchedAt time.Time
}

type Resources struct {
	Core     Payload
	Optional map[Resource]Payload
}

type Identity struct {
	Login          string
	Email          string
	ClassName      string
	ParallelName   string
	Campus         string
	AvatarURL      string
	Level          int64
	ExpValue       int64
	ExpToNextLevel int64
}

func (n Normalizer) Assemble(requested string, res Resources) (ParticipantProfile, error) {
	id, err := n.Core(requested, res.Core)
	if err != nil {
		return ParticipantProfile{}, err
	}
	logtime := n.Logtime(res.Optional[ResourceLogtime])
	history := logtime.History
	if history == nil {
		history = []Logtime{}
	}
	return ParticipantProfile{
		Login:          id.Login,
		Email:          id.Email,
		ClassName:      id.ClassName,
		ParallelName:   id.ParallelName,
		Campus:         id.Campus,
		AvatarURL:      id.AvatarURL,
		Level:          id.Level,
		ExpValue:       id.ExpValue,
		ExpToNextLevel: id.ExpToNextLevel,
		Skills:         n.Skills(res.Optional[ResourceSkills]),
		Projects:       n.Projects(res.Optional[ResourceProjects]),
		Badges:         n.Badges(res.Optional[ResourceBadges]),
		Logtime:        history,
		AverageLogtime: logtime.Average,
		Feedback:       n.Feedback(res.Optional[ResourceFeedback]),
		XPHistory:      n.XPHistory(res.Optional[ResourceXPHistory]),
		Courses:        n.Courses(res.Optional[ResourceCourses]),
		Coalition:      n.Coalition(res.Optional[ResourceCoalition]),
		Workstation:    n.Workstation(res.Optional[ResourceWorkstation]),
		LoadedAt:       n.FetchedAt.UTC(),
	}, nil
}

// Core maps the mandatory participant record. It is the only normalizer
// that fails: the record must be a JSON object.
func (n Normalizer) Core(requested string, p Payload) (Identity, error) {
	rec, ok := p.Object()
	if !ok {
		return Identity{}, &apperrors.ProtocolError{
			Target: CoreEndpoint(requested),
			Reason: fmt.Sprintf("participant record is %s, want object", p.Shape()),
		}
	}
	login := strings.ToLower(rec.Text("login"))
	if login == "" {
		login = strings.ToLower(requested)
	}
	email := rec.Text("email")
	if email == "" && n.EmailDomain != "" {
		email = login + "@" + n.EmailDomain
	}
	level, _ := rec.Int("level")
	exp, _ := rec.Int("expValue")
	next, _ := rec.Int("expToNextLevel")
	return Identity{
		Login:          login,
		Email:          email,
		ClassName:      displayName(rec, "class", "className"),
		ParallelName:   displayName(rec, "parallel", "parallelName"),
		Campus:         displayName(rec, "campus"),
		AvatarURL:      n.resolve(rec.Text("avatarUrl")),
		Level:          nonNegative(level),
		ExpValue:       nonNegative(exp),
		ExpToNextLevel: nonNegative(next),
	}, nil
}

func (n Normalizer) Skills(p Payload) []Skill {
	records := p.Unwrap("skills").Records()
	out := make([]Skill, 0, len(records))
	for i, rec := range records {
		level, _ := rec.Int("points", "level")
		out = append(out, Skill{
			ID:    i,
			Name:  orDefault(rec.Text("name"), unknownSkill),
			Level: int(clamp(level, 0, 100)),
		})
	}
	return out
}

func (n Normalizer) Projects(p Payload) []Project {
	records := p.Unwrap("projects").Records()
	out := make([]Project, 0, len(records))
	for _, rec := range records {
		id, _ := rec.Int("id", "goalId")
		project := Project{
			ID:        id,
			Name:      orDefault(rec.Text("title", "name"), unknownProject),
			Status:    orDefault(rec.Text("status"), defaultStatus),
			UpdatedAt: orDefault(rec.Text("completionDateTime", "updatedAt"), n.timestamp()),
			Team:      projectTeam(rec),
		}
		if mark, ok := rec.Float("finalPercentage", "finalMark"); ok {
			project.FinalMark = &mark
		}
		out = append(out, project)
	}
	return out
}

func (n Normalizer) Badges(p Payload) []Badge {
	records := p.Unwrap("badges").Records()
	out := make([]Badge, 0, len(records))
	for i, rec := range records {
		name := orDefault(rec.Text("name"), defaultBadgeName)
		out = append(out, Badge{
			ID:          i,
			Name:        name,
			Image:       n.resolve(rec.Text("iconUrl", "image")),
			Description: orDefault(rec.Text("description"), name),
			AwardedAt:   orDefault(rec.Text("receiptDateTime", "awardedAt"), n.timestamp()),
		})
	}
	return out
}

// Logtime accepts a bare number (average), a bare list (history) or an
// object carrying either. History wins when both are present.
func (n Normalizer) Logtime(p Payload) LogtimeSummary {
	if avg, ok := p.Number(); ok {
		return LogtimeSummary{Average: &avg}
	}
	if p.Shape() == ShapeList {
		return LogtimeSummary{History: n.logtimeEntries(p)}
	}
	rec, ok := p.Object()
	if !ok {
		return LogtimeSummary{}
	}
	if _, ok := rec.List("logtime"); ok {
		return LogtimeSummary{History: n.logtimeEntries(p.Unwrap("logtime"))}
	}
	if avg, ok := rec.Float("average", "averageLogtime"); ok {
		return LogtimeSummary{Average: &avg}
	}
	return LogtimeSummary{}
}

func (n Normalizer) logtimeEntries(p Payload) []Logtime {
	records := p.Records()
	if len(records) == 0 {
		return nil
	}
	out := make([]Logtime, 0, len(records))
	for _, rec := range records {
		hours, _ := rec.Float("hours")
		minutes, _ := rec.Int("minutes")
		total := int64(math.Round(math.Max(hours, 0)*60)) + nonNegative(minutes)
		out = append(out, Logtime{
			Date:    orDefault(rec.Text("date", "day"), n.timestamp()),
			Hours:   int(total / 60),
			Minutes: int(total % 60),
		})
	}
	return out
}

// Feedback is nil when the resource is absent, which is not the same as a
// record of zero scores.
func (n Normalizer) Feedback(p Payload) *Feedback {
	rec, ok := p.Object("feedback")
	if !ok {
		return nil
	}
	score := func(keys ...string) int {
		v, _ := rec.Float(keys...)
		return int(math.Round(math.Min(math.Max(v, 0), 5)))
	}
	return &Feedback{
		Punctuality:  score("punctuality", "averageVerifierPunctuality"),
		Interest:     score("interest", "averageVerifierInterest"),
		Thoroughness: score("thoroughness", "averageVerifierThoroughness"),
		Friendliness: score("friendliness", "averageVerifierFriendliness"),
	}
}

func (n Normalizer) XPHistory(p Payload) []XPEntry {
	if !p.Present() {
		return nil
	}
	records := p.Unwrap("experienceHistory", "history", "items").Records()
	out := make([]XPEntry, 0, len(records))
	for _, rec := range records {
		exp, _ := rec.Int("expValue", "value")
		out = append(out, XPEntry{
			Date:     orDefault(rec.Text("date", "awardedAt"), n.timestamp()),
			ExpValue: exp,
		})
	}
	return out
}

func (n Normalizer) Courses(p Payload) []Course {
	if !p.Present() {
		return nil
	}
	records := p.Unwrap("courses", "items").Records()
	out := make([]Course, 0, len(records))
	for _, rec := range records {
		id, _ := rec.Int("id", "courseId")
		out = append(out, Course{
			ID:     id,
			Title:  rec.Text("title", "name"),
			Status: rec.Text("status"),
		})
	}
	return out
}

func (n Normalizer) Coalition(p Payload) *Coalition {
	rec, ok := p.Object("coalition")
	if !ok {
		return nil
	}
	score, _ := rec.Int("score")
	rank, _ := rec.Int("rank")
	return &Coalition{
		Name:     orDefault(rec.Text("name"), unknownCoalition),
		ImageURL: n.resolve(rec.Text("coverUrl", "imageUrl")),
		Color:    orDefault(rec.Text("color"), defaultColor),
		Score:    nonNegative(score),
		Rank:     nonNegative(rank),
	}
}

func (n Normalizer) Workstation(p Payload) *Workstation {
	rec, ok := p.Object("workstation")
	if !ok {
		return nil
	}
	host := rec.Text("host", "hostName")
	location := rec.Text("location")
	if location == "" {
		location = seatLocation(rec)
	}
	if location == "" {
		location = host
	}
	return &Workstation{
		Location: orDefault(location, unknownLocation),
		Host:     orDefault(host, unknownHost),
		IsActive: rec.Bool("isActive", "active"),
	}
}

func (n Normalizer) timestamp() string {
	return n.FetchedAt.UTC().Format(time.RFC3339)
}

func (n Normalizer) resolve(path string) string {
	if strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "//") {
		return strings.TrimRight(n.Origin, "/") + path
	}
	return path
}

// displayName reads a field that is either a plain string or an object
// naming itself by shortName, name or id.
func displayName(rec Record, keys ...string) string {
	for _, key := range keys {
		if s := rec.Text(key); s != "" {
			return s
		}
		if nested, ok := rec.Record(key); ok {
			if s := nested.Text("shortName", "name", "id"); s != "" {
				return s
			}
		}
	}
	return unknownIdentifier
}

func projectTeam(rec Record) []string {
	if team, ok := rec.Record("team"); ok {
		if users, ok := team.List("users"); ok {
			return logins(users)
		}
	}
	if members, ok := rec.List("teamMembers"); ok {
		return logins(members)
	}
	if members, ok := rec.List("team"); ok {
		return logins(members)
	}
	return nil
}

func logins(items []any) []string {
	var out []string
	for _, item := range items {
		var login string
		if rec, ok := asRecord(item); ok {
			login = rec.Text("login")
		} else {
			login = asString(item)
		}
		if login != "" {
			out = append(out, login)
		}
	}
	return out
}

func seatLocation(rec Record) string {
	cluster := rec.Text("clusterName")
	if cluster == "" {
		return ""
	}
	parts := []string{"Cluster " + cluster}
	if row := rec.Text("row"); row != "" {
		parts = append(parts, "Row "+row)
	}
	if seat := rec.Text("number"); seat != "" {
		parts = append(parts, "Seat "+seat)
	}
	return strings.Join(parts, ", ")
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

func clamp(v, lo, hi int64) int64 {
	return min(max(v, lo), hi)
}
