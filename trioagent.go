// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package main

import (
	"flag"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest"
	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/adityaadep2008/TrioAgent/internal/cli"
	"github.com/adityaadep2008/TrioAgent/internal/config"
	"github.com/adityaadep2008/TrioAgent/internal/handler"
	"github.com/adityaadep2008/TrioAgent/internal/svc"
)

var configFile = flag.String("f", "etc/trio.yaml", "the config file")

func main() {
	flag.Parse()

	cfg := config.MustLoad(*configFile)
	logx.DisableStat()
	cli.LogConfigSummary(cfg)

	server := rest.MustNewServer(cfg.RestConf, rest.WithCors())
	defer server.Stop()

	ctx := svc.NewServiceContext(*cfg)
	ctx.Start()
	defer ctx.Stop()

	httpx.SetErrorHandlerCtx(handler.ErrorHandler)
	handler.RegisterHandlers(server, ctx)

	fmt.Printf("Starting server at %s:%d...\n", cfg.Host, cfg.Port)
	server.Start()
}
