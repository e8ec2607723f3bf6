// Package tools implements the five tool pipelines behind the chat
// orchestrator. Every pipeline follows the same shape: detect, extract,
// validate and normalize, act against storage, then synthesize a
// grounded answer. Extraction output is never trusted: scope always
// comes from the actor profile and every field passes validation.
package tools

import (
	"context"
	"fmt"
	"path/filepath"

	apperrors "github.com/neuraruet/assistant-go/internal/errors"
	"github.com/neuraruet/assistant-go/internal/llm"
	"github.com/neuraruet/assistant-go/internal/profile"
	"github.com/neuraruet/assistant-go/internal/storage"
)

// Name identifies one tool.
type Name string

const (
	FindMaterials     Name = "find_materials"
	ViewNotices       Name = "view_notices"
	CheckMarks        Name = "check_marks"
	GenerateCoverPage Name = "generate_cover_page"
	GenerateMarksheet Name = "generate_marksheet"
)

// Valid reports whether n names a known tool.
func (n Name) Valid() bool {
	switch n {
	case FindMaterials, ViewNotices, CheckMarks, GenerateCoverPage, GenerateMarksheet:
		return true
	}
	return false
}

// Result modes.
const (
	ModeAnswer    = "answer"
	ModeAsk       = "ask"
	ModeWrongTool = "wrong_tool"
)

// Input is one tool invocation.
type Input struct {
	Actor   profile.Actor
	Text    string
	History []llm.Message
}

// Result is what a pipeline hands back to the orchestrator.
type Result struct {
	Mode          string
	Text          string
	Question      string   // set when Mode is ask
	MissingFields []string // set when Mode is ask
	DocumentPath  string   // set when a file was generated
}

// Tool is one runnable pipeline.
type Tool interface {
	Name() Name
	Run(ctx context.Context, in Input) (Result, error)
}

// Registry dispatches tool invocations by name.
type Registry struct {
	materials *MaterialsTool
	notices   *NoticesTool
	marks     *MarksTool
	cover     *CoverTool
	marksheet *MarksheetTool
}

func NewRegistry(materials *MaterialsTool, notices *NoticesTool, marks *MarksTool, cover *CoverTool, marksheet *MarksheetTool) *Registry {
	return &Registry{
		materials: materials,
		notices:   notices,
		marks:     marks,
		cover:     cover,
		marksheet: marksheet,
	}
}

// Dispatch runs the named tool. Unknown names return ErrUnknownTool so
// the orchestrator can degrade gracefully when the gate hallucinates a
// tool name.
func (r *Registry) Dispatch(ctx context.Context, name Name, in Input) (Result, error) {
	switch name {
	case FindMaterials:
		return r.materials.Run(ctx, in)
	case ViewNotices:
		return r.notices.Run(ctx, in)
	case CheckMarks:
		return r.marks.Run(ctx, in)
	case GenerateCoverPage:
		return r.cover.Run(ctx, in)
	case GenerateMarksheet:
		return r.marksheet.Run(ctx, in)
	default:
		return Result{}, fmt.Errorf("%w: %q", apperrors.ErrUnknownTool, name)
	}
}

// actorScope builds the storage scope from the actor profile. This is
// the only place tool pipelines derive scope from, so extracted dept or
// series values can never widen visibility.
func actorScope(a profile.Actor) storage.Scope {
	return storage.Scope{Dept: a.Dept, Series: a.Series, Section: a.Section}
}

// DocumentURL maps a generated file to its public download path.
func DocumentURL(path string) string {
	return "/documents/" + filepath.Base(path)
}
