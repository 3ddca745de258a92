package course

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Lesson is a single video in a course module
type Lesson struct {
	ID              int64   `json:"id"`
	ModuleID        int64   `json:"moduleId"`
	Title           string  `json:"title"`
	Description     string  `json:"description,omitempty"`
	VideoURL        string  `json:"videoUrl,omitempty"`
	VimeoID         string  `json:"vimeoId,omitempty"`
	VimeoHash       *string `json:"vimeoHash,omitempty"`
	DurationSeconds int     `json:"durationSeconds"`
	Position        int     `json:"position"`
	IsFree          bool    `json:"isFree"`
}

// Module groups lessons of a course
type Module struct {
	ID          int64     `json:"id"`
	CourseID    int64     `json:"courseId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Position    int       `json:"position"`
	Lessons     []*Lesson `json:"lessons"`
}

// Content is the full module/lesson tree of a course product
type Content struct {
	CourseID      int64     `json:"courseId"`
	Modules       []*Module `json:"modules"`
	TotalLessons  int       `json:"totalLessons"`
	TotalDuration int       `json:"totalDurationSeconds"`
}

// Summarize fills the lesson and duration totals
func (c *Content) Summarize() {
	c.TotalLessons, c.TotalDuration = 0, 0
	for _, m := range c.Modules {
		c.TotalLessons += len(m.Lessons)
		for _, l := range m.Lessons {
			c.TotalDuration += l.DurationSeconds
		}
	}
}

// Outline returns a copy of the content with video references removed from locked lessons
func (c *Content) Outline() *Content {
	out := &Content{CourseID: c.CourseID, Modules: make([]*Module, 0, len(c.Modules))}
	for _, m := range c.Modules {
		mc := *m
		mc.Lessons = make([]*Lesson, 0, len(m.Lessons))
		for _, l := range m.Lessons {
			lc := *l
			if !lc.IsFree {
				lc.VideoURL, lc.VimeoID, lc.VimeoHash = "", "", nil
			}
			mc.Lessons = append(mc.Lessons, &lc)
		}
		out.Modules = append(out.Modules, &mc)
	}
	out.Summarize()
	return out
}

// Playback is what the player needs to embed a lesson video
type Playback struct {
	LessonID        int64  `json:"lessonId"`
	Title           string `json:"title"`
	EmbedURL        string `json:"embedUrl"`
	DurationSeconds int    `json:"durationSeconds"`
}

// Video identifies a Vimeo video, optionally unlisted via a privacy hash
type Video struct {
	ID   string
	Hash string
}

var (
	vimeoIDPattern   = regexp.MustCompile(`^[0-9]+$`)
	vimeoHashPattern = regexp.MustCompile(`^[0-9a-f]+$`)
)

// ParseVimeo accepts vimeo.com/<id>[/<hash>], player.vimeo.com/video/<id>[?h=<hash>] or a bare id
func ParseVimeo(raw string) (Video, error) {
	raw = strings.TrimSpace(raw)
	if vimeoIDPattern.MatchString(raw) {
		return Video{ID: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return Video{}, fmt.Errorf("invalid vimeo url %q", raw)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")

	var v Video
	switch host {
	case "vimeo.com":
		if len(parts) >= 1 {
			v.ID = parts[0]
		}
		if len(parts) >= 2 {
			v.Hash = parts[1]
		}
	case "player.vimeo.com":
		if len(parts) >= 2 && parts[0] == "video" {
			v.ID = parts[1]
		}
		v.Hash = u.Query().Get("h")
	default:
		return Video{}, fmt.Errorf("unsupported video host %q", u.Host)
	}

	if !vimeoIDPattern.MatchString(v.ID) {
		return Video{}, fmt.Errorf("invalid vimeo video id in %q", raw)
	}
	if v.Hash != "" && !vimeoHashPattern.MatchString(v.Hash) {
		return Video{}, fmt.Errorf("invalid vimeo privacy hash in %q", raw)
	}
	return v, nil
}

// EmbedURL returns the player.vimeo.com iframe source for the video
func (v Video) EmbedURL() string {
	u := "https://player.vimeo.com/video/" + v.ID
	if v.Hash != "" {
		u += "?h=" + v.Hash
	}
	return u
}
