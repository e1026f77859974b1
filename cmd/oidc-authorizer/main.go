// Command oidc-authorizer runs the token authorizer, either as an AWS Lambda
// function or as a plain HTTP service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
	"go.opentelemetry.io/otel"

	authorizer "github.com/oidcauthorizer/oidc-authorizer"
	"github.com/oidcauthorizer/oidc-authorizer/expression"
	"github.com/oidcauthorizer/oidc-authorizer/internal/config"
	"github.com/oidcauthorizer/oidc-authorizer/internal/oidc"
	"github.com/oidcauthorizer/oidc-authorizer/internal/server"
	"github.com/oidcauthorizer/oidc-authorizer/keystore"
	"github.com/oidcauthorizer/oidc-authorizer/principal"
	"github.com/oidcauthorizer/oidc-authorizer/validator"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("oidc-authorizer", flag.ContinueOnError)
	mode := fs.String("mode", "lambda", "how to serve requests: lambda or http")
	listen := fs.String("listen", ":8080", "listen address in http mode")
	envFile := fs.String("env-file", "", "optional dotenv file read after the process environment")
	version := fs.Bool("version", false, "print the version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *version {
		fmt.Println(authorizer.UserAgent())
		return nil
	}
	if *mode != "lambda" && *mode != "http" {
		return fmt.Errorf("unknown mode %q", *mode)
	}

	lookup, err := config.EnvLookup(*envFile)
	if err != nil {
		return err
	}
	cfg, err := config.Load(lookup)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	if cfg.ZipkinEndpoint != "" {
		tp, err := authorizer.NewZipkinTracerProvider(cfg.ZipkinEndpoint)
		if err != nil {
			return err
		}
		otel.SetTracerProvider(tp)
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := build(ctx, cfg, logger, authorizer.NewPrometheusMetrics(registry))
	if err != nil {
		return err
	}

	if *mode == "http" {
		return server.Run(ctx, *listen, server.NewHandler(a, registry), logger)
	}

	lambda.StartWithOptions(a.HandleRequest, lambda.WithContext(ctx))
	return nil
}

func newLogger(cfg *config.Config) (authorizer.Logger, error) {
	l := logrus.New()
	l.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	l.SetLevel(level)

	if cfg.LogFormat == "text" {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	return authorizer.NewLogrusLogger(l), nil
}

// build wires the authorizer from cfg. Discovery runs once here when no
// JWKS URI is configured.
func build(ctx context.Context, cfg *config.Config, logger authorizer.Logger, metrics *authorizer.PrometheusMetrics) (*authorizer.Authorizer, error) {
	client := &http.Client{Timeout: cfg.JWKSFetchTimeout}

	jwksURI := cfg.JWKSURI
	if jwksURI == nil {
		endpoints, err := oidc.GetWellKnownEndpointsFromIssuerURL(ctx, client, *cfg.IssuerURL, authorizer.UserAgent())
		if err != nil {
			return nil, err
		}
		if jwksURI, err = url.Parse(endpoints.JWKSURI); err != nil {
			return nil, fmt.Errorf("invalid jwks_uri in discovery document: %w", err)
		}
		logger.Info("Discovered JWKS URI", "issuer", endpoints.Issuer, "jwks_uri", jwksURI.String())
	}

	keys, err := keystore.New(
		keystore.WithJWKSURI(jwksURI),
		keystore.WithHTTPClient(client),
		keystore.WithMinRefreshInterval(cfg.MinRefreshRate),
		keystore.WithUserAgent(authorizer.UserAgent()),
		keystore.WithLogger(logger),
		keystore.WithMetrics(metrics),
	)
	if err != nil {
		return nil, err
	}

	algorithms, err := validator.NewAlgorithmPolicy(cfg.AcceptedAlgorithms...)
	if err != nil {
		return nil, err
	}

	policy, err := expression.New(cfg.TokenValidationCEL)
	if err != nil {
		return nil, err
	}

	verifier, err := validator.NewTokenVerifier(validator.WithAllowedClockSkew(cfg.AllowedClockSkew))
	if err != nil {
		return nil, err
	}

	logger.Info("Authorizer configured",
		"jwks_uri", jwksURI.String(),
		"accepted_issuers", cfg.AcceptedIssuers,
		"accepted_audiences", cfg.AcceptedAudiences,
		"accepted_algorithms", algorithms.Accepted(),
		"policy_expression", policy.Enabled(),
		"principal_claims", cfg.PrincipalIDClaims,
	)

	return authorizer.New(
		authorizer.WithKeyResolver(keys),
		authorizer.WithAlgorithmPolicy(algorithms),
		authorizer.WithAcceptedIssuers(cfg.AcceptedIssuers...),
		authorizer.WithAcceptedAudiences(cfg.AcceptedAudiences...),
		authorizer.WithPolicyExpression(policy),
		authorizer.WithPrincipalResolver(principal.NewResolver(cfg.PrincipalIDClaims, cfg.DefaultPrincipalID)),
		authorizer.WithTokenVerifier(verifier),
		authorizer.WithLogger(logger),
		authorizer.WithMetrics(metrics),
	)
}
