package project

import (
	"sync"

	"github.com/animtools/timewarp/internal/model"
)

// Context holds the current project and session state
type Context struct {
	mu      sync.RWMutex
	Project string
	Clip    string
	Session *model.SessionRow
}

// NewContext creates a new Context with default values
func NewContext() *Context {
	return &Context{
		Project: "No project loaded",
		Clip:    "No clip loaded",
		Session: &model.SessionRow{},
	}
}

// GetSession returns the current session row
func (pc *Context) GetSession() *model.SessionRow {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.Session
}

// GetProject returns the current project and clip names
func (pc *Context) GetProject() (string, string) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.Project, pc.Clip
}

// SetSession sets the current project, clip and session row
func (pc *Context) SetSession(project, clip string, session *model.SessionRow) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.Project = project
	pc.Clip = clip
	pc.Session = session
}
