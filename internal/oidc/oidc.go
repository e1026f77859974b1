package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
)

const maxDiscoveryDocumentSize = 1 << 20

// WellKnownEndpoints holds the discovery members the authorizer uses.
type WellKnownEndpoints struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

// GetWellKnownEndpointsFromIssuerURL fetches the discovery document of
// issuerURL and returns its endpoints.
func GetWellKnownEndpointsFromIssuerURL(ctx context.Context, client *http.Client, issuerURL url.URL, userAgent string) (*WellKnownEndpoints, error) {
	expectedIssuer := issuerURL.String()
	issuerURL.Path = path.Join(issuerURL.Path, ".well-known/openid-configuration")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, issuerURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("could not build request to get well known endpoints: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not get well known endpoints from url %s: %w", issuerURL.String(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, issuerURL.String())
	}

	var wkEndpoints WellKnownEndpoints
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDiscoveryDocumentSize)).Decode(&wkEndpoints); err != nil {
		return nil, fmt.Errorf("could not decode json body when getting well known endpoints: %w", err)
	}

	if normalizeIssuer(wkEndpoints.Issuer) != normalizeIssuer(expectedIssuer) {
		return nil, fmt.Errorf("discovery document issuer %q does not match %q", wkEndpoints.Issuer, expectedIssuer)
	}

	if wkEndpoints.JWKSURI == "" {
		return nil, errors.New("discovery document has no jwks_uri")
	}
	jwksURI, err := url.Parse(wkEndpoints.JWKSURI)
	if err != nil || (jwksURI.Scheme != "http" && jwksURI.Scheme != "https") {
		return nil, fmt.Errorf("discovery document has an invalid jwks_uri %q", wkEndpoints.JWKSURI)
	}

	return &wkEndpoints, nil
}

func normalizeIssuer(issuer string) string {
	return strings.TrimSuffix(issuer, "/")
}
