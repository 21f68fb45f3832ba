package build

import (
	"bytes"
	"context"
	"html/template"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/courses/internal/content"
	"git.home.luguber.info/inful/courses/internal/exercise"
	foundation "git.home.luguber.info/inful/courses/internal/foundation/errors"
	"git.home.luguber.info/inful/courses/internal/layout"
	"git.home.luguber.info/inful/courses/internal/logfields"
	"git.home.luguber.info/inful/courses/internal/math"
	"git.home.luguber.info/inful/courses/internal/metrics"
	"git.home.luguber.info/inful/courses/internal/notebook"
	"git.home.luguber.info/inful/courses/internal/report"
)

// output is a rendered document ready to be written below a target dir.
type output struct {
	rel  string
	data []byte
}

// processNode renders one document for each enabled target. Every failure is
// recorded and confined to this node and target.
func (r *run) processNode(ctx context.Context, n *content.Node) {
	log := r.log.With(logfields.Document(n.Path))
	if n.ConfigErr != nil {
		log.Warn("Document configuration invalid", logfields.Error(n.ConfigErr))
		r.collector.fail(n.Path, "", withDocument(n.ConfigErr, n.Path))
		for _, t := range Targets {
			r.recorder.IncDocumentResult(string(t), metrics.ResultFailed)
		}
		return
	}

	var doc *content.Document
	for _, t := range Targets {
		if !t.Enabled(n) {
			r.recorder.IncDocumentResult(string(t), metrics.ResultSkipped)
			continue
		}
		if err := ctx.Err(); err != nil {
			return
		}
		if doc == nil {
			var err error
			doc, err = content.ReadDocument(filepath.Join(r.contentDir, filepath.FromSlash(n.Path)))
			if err != nil {
				log.Error("Document unreadable", logfields.Error(err))
				r.collector.fail(n.Path, "", withDocument(err, n.Path))
				return
			}
		}

		start := time.Now()
		out, err := r.render(ctx, t, n, doc)
		if err == nil {
			err = writeOutput(r.outDir(t), out.rel, out.data)
		}
		r.recorder.ObserveDocumentDuration(string(t), time.Since(start))
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("Document failed", logfields.Target(string(t)), logfields.Error(err))
			r.collector.fail(n.Path, t, withDocument(err, n.Path))
			r.recorder.IncDocumentResult(string(t), metrics.ResultFailed)
			continue
		}

		r.collector.wrote()
		r.recorder.IncDocumentResult(string(t), metrics.ResultSuccess)
		r.report.AddDocument(report.Document{
			Path:        n.Path,
			Target:      string(t),
			Output:      filepath.ToSlash(filepath.Join(t.Dir(), out.rel)),
			Fingerprint: report.Fingerprint(doc.Header.Raw, out.data),
		})
		log.Debug("Document written", logfields.Target(string(t)), logfields.File(out.rel))
	}
}

func (r *run) render(ctx context.Context, t Target, n *content.Node, doc *content.Document) (output, error) {
	if t == TargetNotebook {
		return r.renderSource(n, doc)
	}
	return r.renderWeb(ctx, n, doc)
}

// renderWeb produces the HTML page of a document: solutions kept, shortcodes
// from the html set, math precompiled or protected, then the page layout.
func (r *run) renderWeb(ctx context.Context, n *content.Node, doc *content.Document) (output, error) {
	cfg := n.Config

	var body []byte
	switch doc.Format {
	case content.FormatNotebook:
		nb := doc.Notebook.Clone()
		if cfg.CodeSplit {
			if err := exercise.TransformNotebook(nb, TargetWeb.Mode()); err != nil {
				return output{}, err
			}
		}
		md, err := notebook.ToMarkdown(nb, cfg.CellOutputs)
		if err != nil {
			return output{}, foundation.WrapError(err, foundation.CategoryRender, "notebook conversion failed").Build()
		}
		body = md
	default:
		body = doc.Body
		if cfg.CodeSplit {
			var err error
			if body, err = exercise.TransformMarkdown(body, TargetWeb.Mode()); err != nil {
				return output{}, err
			}
		}
	}

	body, err := r.shortcodes.NewSession(TargetWeb.ShortcodeFormat()).Expand(body)
	if err != nil {
		return output{}, err
	}

	var renderer math.Renderer
	mode := "client"
	if r.settings.KatexOutput {
		renderer, mode = r.math, "precompiled"
	}
	protected, pm, err := math.Protect(ctx, body, renderer)
	if err != nil {
		return output{}, err
	}
	r.recorder.AddMathExpressions(mode, pm.Count())

	fragment, err := r.markdown.Render(protected)
	if err != nil {
		return output{}, foundation.WrapError(err, foundation.CategoryRender, "markdown rendering failed").Build()
	}
	fragment = pm.Restore(fragment)

	toc, err := layout.ExtractTOC(fragment)
	if err != nil {
		return output{}, foundation.WrapError(err, foundation.CategoryRender, "table of contents extraction failed").Build()
	}

	prev, next := r.site.Neighbours(n.ID)
	page := &layout.Page{
		Title:       cfg.Title,
		Course:      r.site.Course(),
		Level:       n.Level.String(),
		Content:     template.HTML(fragment), // #nosec G203 - rendered from project sources
		ShowSidebar: !cfg.Layout.HideSidebar,
		Nav:         r.site.Nav(n.ID),
		Breadcrumbs: r.site.Breadcrumbs(n.ID),
		Prev:        prev,
		Next:        next,
		TOC:         toc,
		Revision:    r.revision,
		URLPrefix:   r.site.URLPrefix(),
		Profile:     r.profile,
		ClientMath:  renderer == nil && pm.Count() > 0,
	}
	var buf bytes.Buffer
	if err := r.layouts.Render(&buf, page); err != nil {
		return output{}, err
	}
	return output{rel: n.WebPath(), data: buf.Bytes()}, nil
}

// renderSource produces the student copy of a document: placeholders instead
// of solutions, shortcodes from the md set, emitted as a notebook when
// notebook_output is set and as markdown otherwise. The configuration header
// is kept so the output is again a valid course document.
func (r *run) renderSource(n *content.Node, doc *content.Document) (output, error) {
	cfg := n.Config
	session := r.shortcodes.NewSession(TargetNotebook.ShortcodeFormat())

	if doc.Format == content.FormatNotebook {
		nb := doc.Notebook.Clone()
		if cfg.CodeSplit {
			if err := exercise.TransformNotebook(nb, TargetNotebook.Mode()); err != nil {
				return output{}, err
			}
			nb.ClearOutputs()
		}
		for i := range nb.Cells {
			if nb.Cells[i].Type != notebook.CellMarkdown {
				continue
			}
			expanded, err := session.Expand([]byte(nb.Cells[i].Source))
			if err != nil {
				if ce, ok := foundation.AsClassified(err); ok {
					return output{}, ce.WithContext("cell", i)
				}
				return output{}, err
			}
			nb.Cells[i].Source = notebook.Source(expanded)
		}

		if cfg.NotebookOutput {
			data, err := nb.WithHeader(doc.Header).Marshal()
			if err != nil {
				return output{}, foundation.WrapError(err, foundation.CategoryRender, "notebook encoding failed").Build()
			}
			return output{rel: n.SourcePath(".ipynb"), data: data}, nil
		}
		md, err := notebook.ToMarkdown(nb, false)
		if err != nil {
			return output{}, foundation.WrapError(err, foundation.CategoryRender, "notebook conversion failed").Build()
		}
		h := doc.Header
		h.Body = md
		return output{rel: n.SourcePath(".md"), data: h.Join()}, nil
	}

	body := doc.Body
	if cfg.CodeSplit {
		var err error
		if body, err = exercise.TransformMarkdown(body, TargetNotebook.Mode()); err != nil {
			return output{}, err
		}
	}
	body, err := session.Expand(body)
	if err != nil {
		return output{}, err
	}

	if cfg.NotebookOutput {
		nb, err := notebook.FromMarkdown(doc.Header, body)
		if err != nil {
			return output{}, foundation.WrapError(err, foundation.CategoryRender, "notebook conversion failed").Build()
		}
		data, err := nb.Marshal()
		if err != nil {
			return output{}, foundation.WrapError(err, foundation.CategoryRender, "notebook encoding failed").Build()
		}
		return output{rel: n.SourcePath(".ipynb"), data: data}, nil
	}
	h := doc.Header
	h.Body = body
	return output{rel: n.SourcePath(".md"), data: h.Join()}, nil
}

// withDocument attaches the document path to classified errors.
func withDocument(err error, path string) error {
	if ce, ok := foundation.AsClassified(err); ok {
		return ce.WithContext("document", path)
	}
	return err
}
