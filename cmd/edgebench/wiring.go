package main

import (
	"fmt"

	"github.com/cgast/edgebench/internal/sandbox"
	"github.com/cgast/edgebench/pkg/freshness"
	"github.com/cgast/edgebench/pkg/provider/general"
	"github.com/cgast/edgebench/pkg/provider/local"
	"github.com/cgast/edgebench/pkg/tools"
	"github.com/cgast/edgebench/pkg/tools/datareg"
	"github.com/cgast/edgebench/pkg/tools/env"
	"github.com/cgast/edgebench/pkg/tools/fs"
	"github.com/cgast/edgebench/pkg/tools/rag"
	"github.com/cgast/edgebench/pkg/tools/sqlite"
	"github.com/cgast/edgebench/pkg/tools/web"
)

func (a *app) sandbox() (*sandbox.Sandbox, error) {
	sb, err := sandbox.New(sandbox.Config{
		AllowedPaths: a.cfg.Sandbox.AllowedPaths,
		DeniedPaths:  a.cfg.Sandbox.DeniedPaths,
		MaxFileSize:  a.cfg.Sandbox.MaxFileSize,
	})
	if err != nil {
		return nil, fmt.Errorf("sandbox: %w", err)
	}
	return sb, nil
}

func (a *app) freshness() *freshness.Registry {
	return freshness.New(a.cfg.Registry.Path, freshness.WithLogger(a.logger))
}

// tools registers every tool the CLI and the MCP server expose.
func (a *app) tools() (*tools.Registry, error) {
	sb, err := a.sandbox()
	if err != nil {
		return nil, err
	}
	reg := a.freshness()
	retriever := &rag.Retriever{
		Registry:  reg,
		CacheRoot: a.cfg.Registry.CacheRoot,
		TopK:      a.cfg.RAG.TopK,
		Sandbox:   sb,
		Publisher: a.bus,
		Logger:    a.logger,
	}
	client := web.NewClient(a.cfg.General.AllowedDomains, a.cfg.General.Timeout())

	r := tools.NewRegistry()
	all := []tools.Tool{
		&fs.ListTool{Sandbox: sb},
		&fs.ReadTool{Sandbox: sb},
		&fs.WriteTool{Sandbox: sb},
		&sqlite.QueryTool{Sandbox: sb},
		&rag.QueryTool{Retriever: retriever},
		&rag.QueryAllTool{Retriever: retriever},
		&env.SetTool{},
		&web.GetTool{Client: client},
		&web.PostTool{Client: client},
	}
	all = append(all, datareg.All(reg)...)
	if err := r.Register(all...); err != nil {
		return nil, err
	}
	return r, nil
}

// providers builds the general provider and the local agent from config.
func (a *app) providers() (*general.Provider, *local.Agent, error) {
	sb, err := a.sandbox()
	if err != nil {
		return nil, nil, err
	}
	g := a.cfg.General
	gp := general.New(general.Config{
		Backend:        g.Backend,
		Model:          g.Model,
		APIKey:         g.APIKey,
		APIKeyEnv:      g.APIKeyEnv,
		BaseURL:        g.BaseURL,
		Timeout:        g.Timeout(),
		RESTFallback:   g.RESTFallback,
		AllowedDomains: g.AllowedDomains,
	}, general.WithLogger(a.logger))
	la := local.New(local.WithSandbox(sb), local.WithLogger(a.logger))
	return gp, la, nil
}
