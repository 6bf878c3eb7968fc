package service

import (
	"sync"

	"go-pkresolve/pkg"
)

// Sink receives the output of a query as it is produced. Per-item errors
// are delivered through Error and the query continues; fatal errors are
// returned by the operation itself.
type Sink interface {
	Package(p Package)
	Details(d Details)
	Files(f FileList)
	UpdateDetail(u UpdateDetail)
	Repo(r RepoDetail)
	Message(m Message)
	Error(code string, err error)
}

// Package is one emitted package line.
type Package struct {
	Info    pkg.Info     `json:"info" yaml:"info"`
	ID      string       `json:"id" yaml:"id"`
	Summary string       `json:"summary" yaml:"summary"`
	Ident   pkg.Identity `json:"-" yaml:"-"`
}

// Details describes one package version.
type Details struct {
	ID          string    `json:"id" yaml:"id"`
	License     string    `json:"license" yaml:"license"`
	Group       pkg.Group `json:"group" yaml:"group"`
	Description string    `json:"description" yaml:"description"`
	Homepage    string    `json:"homepage" yaml:"homepage"`
	Size        int64     `json:"size" yaml:"size"`
}

// FileList is the sorted file list of an installed package.
type FileList struct {
	ID    string   `json:"id" yaml:"id"`
	Files []string `json:"files" yaml:"files"`
}

// UpdateDetail describes a pending update. Updates lists the installed
// versions it replaces, joined with '&'.
type UpdateDetail struct {
	ID          string `json:"id" yaml:"id"`
	Updates     string `json:"updates" yaml:"updates"`
	Obsoletes   string `json:"obsoletes" yaml:"obsoletes"`
	VendorURL   string `json:"vendor_url" yaml:"vendor_url"`
	BugzillaURL string `json:"bugzilla_url" yaml:"bugzilla_url"`
	CVEURL      string `json:"cve_url" yaml:"cve_url"`
	Restart     string `json:"restart" yaml:"restart"`
	UpdateText  string `json:"update_text" yaml:"update_text"`
	Changelog   string `json:"changelog" yaml:"changelog"`
	State       string `json:"state" yaml:"state"`
}

// RepoDetail is one repository line.
type RepoDetail struct {
	ID          string `json:"id" yaml:"id"`
	Description string `json:"description" yaml:"description"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
}

// Message kinds.
const (
	MessageCouldNotFindPackage = "could-not-find-package"
)

// Message is an informational notice that is not an error.
type Message struct {
	Kind string `json:"kind" yaml:"kind"`
	Text string `json:"text" yaml:"text"`
}

// ItemError is a per-item error recorded by Result.
type ItemError struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
	Err     error  `json:"-" yaml:"-"`
}

// Result is a Sink that collects everything in memory. It is safe for
// concurrent use.
type Result struct {
	mu sync.Mutex

	Packages       []Package      `json:"packages,omitempty" yaml:"packages,omitempty"`
	PackageDetails []Details      `json:"details,omitempty" yaml:"details,omitempty"`
	FileLists      []FileList     `json:"files,omitempty" yaml:"files,omitempty"`
	UpdateDetails  []UpdateDetail `json:"update_details,omitempty" yaml:"update_details,omitempty"`
	Repos          []RepoDetail   `json:"repos,omitempty" yaml:"repos,omitempty"`
	Messages       []Message      `json:"messages,omitempty" yaml:"messages,omitempty"`
	Errors         []ItemError    `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// NewResult returns an empty collecting sink.
func NewResult() *Result {
	return &Result{}
}

var _ Sink = (*Result)(nil)

func (r *Result) add(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}

func (r *Result) Package(p Package)           { r.add(func() { r.Packages = append(r.Packages, p) }) }
func (r *Result) Details(d Details)           { r.add(func() { r.PackageDetails = append(r.PackageDetails, d) }) }
func (r *Result) Files(f FileList)            { r.add(func() { r.FileLists = append(r.FileLists, f) }) }
func (r *Result) UpdateDetail(u UpdateDetail) { r.add(func() { r.UpdateDetails = append(r.UpdateDetails, u) }) }
func (r *Result) Repo(d RepoDetail)           { r.add(func() { r.Repos = append(r.Repos, d) }) }
func (r *Result) Message(m Message)           { r.add(func() { r.Messages = append(r.Messages, m) }) }

func (r *Result) Error(code string, err error) {
	r.add(func() { r.Errors = append(r.Errors, ItemError{Code: code, Message: err.Error(), Err: err}) })
}

// IDs returns the identifiers of the collected packages in emission order.
func (r *Result) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, len(r.Packages))
	for i, p := range r.Packages {
		ids[i] = p.ID
	}
	return ids
}
