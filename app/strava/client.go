package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"stravadash/app/utils"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUpstreamFetch wraps transport errors and non-2xx answers from the activities API.
	ErrUpstreamFetch = errors.New("strava upstream fetch failed")
	// ErrUnauthorized is returned alongside ErrUpstreamFetch on 401.
	ErrUnauthorized = errors.New("strava rejected access token")
	// ErrAuthFailed covers failures of the OAuth token endpoint.
	ErrAuthFailed = errors.New("strava token exchange failed")
)

const (
	DefaultAuthorizeURL = "https://www.strava.com/oauth/authorize"
	DefaultTokenURL     = "https://www.strava.com/oauth/token"
	DefaultAPIURL       = "https://www.strava.com/api/v3"

	Scope = "activity:read_all"
)

type AuthResp struct {
	RefreshToken string      `json:"refresh_token"`
	AccessToken  string      `json:"access_token"`
	Athlete      AthleteInfo `json:"athlete"`
	ExpiresAt    int64       `json:"expires_at"`
}

type AthleteInfo struct {
	Id        int64  `json:"id"`
	Username  string `json:"username"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Profile   string `json:"profile"`
}

func (a AthleteInfo) FullName() string {
	return strings.TrimSpace(a.Firstname + " " + a.Lastname)
}

// SummaryActivity is the subset of the Strava activity listing we read.
type SummaryActivity struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Type             string    `json:"type"`
	SportType        string    `json:"sport_type"`
	StartDate        time.Time `json:"start_date"`
	Distance         float64   `json:"distance"`
	MovingTime       int64     `json:"moving_time"`
	ElapsedTime      int64     `json:"elapsed_time"`
	AverageSpeed     float64   `json:"average_speed"`
	AverageHeartrate *float64  `json:"average_heartrate"`
	Athlete          struct {
		ID int64 `json:"id"`
	} `json:"athlete"`
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Strava interface {
	Authorize(ctx context.Context, accessCode string) (*AuthResp, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*AuthResp, error)
	ListActivities(ctx context.Context, accessToken string, page, perPage int) ([]SummaryActivity, error)
}

var _ Strava = (*Client)(nil)

type Client struct {
	ClientId     string
	ClientSecret string
	HTTP         HTTPClient
	AuthorizeURL string
	TokenURL     string
	APIURL       string
}

func NewStravaClient(clientId, clientSecret string, httpClient HTTPClient) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		ClientId:     clientId,
		ClientSecret: clientSecret,
		HTTP:         httpClient,
		AuthorizeURL: DefaultAuthorizeURL,
		TokenURL:     DefaultTokenURL,
		APIURL:       DefaultAPIURL,
	}
}

// AuthURL is where the athlete is sent to grant read access to their activities.
func (c *Client) AuthURL(redirectURI string) string {
	params := url.Values{
		"client_id":       {c.ClientId},
		"redirect_uri":    {redirectURI},
		"response_type":   {"code"},
		"approval_prompt": {"auto"},
		"scope":           {Scope},
	}
	return c.AuthorizeURL + "?" + params.Encode()
}

func (c *Client) Authorize(ctx context.Context, accessCode string) (*AuthResp, error) {
	return c.auth(ctx, c.getAuthPayload(accessCode, ""))
}

func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*AuthResp, error) {
	return c.auth(ctx, c.getAuthPayload("", refreshToken))
}

// ListActivities fetches one page of the authenticated athlete's activities.
// An empty slice means there are no more pages.
func (c *Client) ListActivities(ctx context.Context, accessToken string, page, perPage int) ([]SummaryActivity, error) {
	params := url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}
	reqUrl := fmt.Sprintf("%s/athlete/activities?%s", c.APIURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqUrl, nil)
	if err != nil {
		slog.Error("error occurred during request creation")
		return nil, fmt.Errorf("%w: %w", ErrUpstreamFetch, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		slog.Error("error occurred during request handling", "page", page, "err", err)
		return nil, fmt.Errorf("%w: page %d: %w", ErrUpstreamFetch, page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		utils.DebugResponse(resp)
		slog.Error("received unauthorized response", "page", page)
		return nil, fmt.Errorf("%w: page %d: %w", ErrUpstreamFetch, page, ErrUnauthorized)
	}
	if resp.StatusCode >= 300 {
		body := utils.DebugResponse(resp)
		slog.Error("got bad resp from strava", "status", resp.Status, "page", page)
		return nil, fmt.Errorf("%w: page %d: status %s: %s", ErrUpstreamFetch, page, resp.Status, body)
	}

	var activities []SummaryActivity
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		slog.Error("error occurred during response decode handling", "page", page)
		return nil, fmt.Errorf("%w: page %d: decode: %w", ErrUpstreamFetch, page, err)
	}
	return activities, nil
}

type authReqBody struct {
	Code         string
	RefreshToken string
	GrantType    string
}

func (c *Client) auth(ctx context.Context, payload authReqBody) (*AuthResp, error) {
	form := url.Values{
		"client_id":     {c.ClientId},
		"client_secret": {c.ClientSecret},
		"grant_type":    {payload.GrantType},
	}
	if payload.Code != "" {
		form.Set("code", payload.Code)
	}
	if payload.RefreshToken != "" {
		form.Set("refresh_token", payload.RefreshToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		slog.Error("error while fetching auth request from strava", "grant_type", payload.GrantType)
		return nil, fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body := utils.DebugResponse(resp)
		return nil, fmt.Errorf("%w: status %s: %s", ErrAuthFailed, resp.Status, body)
	}

	var authResp AuthResp
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrAuthFailed, err)
	}
	if authResp.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrAuthFailed)
	}
	return &authResp, nil
}

func (c *Client) getAuthPayload(code string, refreshToken string) authReqBody {
	grantType := "authorization_code"
	if code == "" {
		grantType = "refresh_token"
	}
	return authReqBody{
		RefreshToken: refreshToken,
		Code:         code,
		GrantType:    grantType,
	}
}
