package incentive

import (
	"bikelog/lib/restyutil"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/publicsuffix"
)

// Trip is a single commute as the incentive form expects it.
type Trip struct {
	Mileage     float64
	Destination string
	OtherMode   string
}

// Form encodes the trip as the form fields of the trip log page, `trip-log`
// is a hidden marker field that is always 1.
func (t Trip) Form() url.Values {
	form := url.Values{}
	form.Set("trip-log", "1")
	form.Set("mileage", strconv.FormatFloat(t.Mileage, 'f', -1, 64))
	form.Set("destination", t.Destination)
	form.Set("othermode", t.OtherMode)
	return form
}

type Login struct {
	Username string
	Password string
}

type ClientOptions struct {
	// "https" or "http"
	Scheme string
	// host and path of the trip log page, without a scheme
	Endpoint  string
	UserAgent string
	Timeout   time.Duration
	// wraps the transport with a browser-like TLS fingerprint
	BrowserTLS bool
}

type Client struct {
	Target *url.URL
	Http   *resty.Client
}

func NewClient(opts ClientOptions) (*Client, error) {
	scheme := strings.ToLower(opts.Scheme)
	if scheme == "" {
		scheme = "https"
	}
	if scheme != "https" && scheme != "http" {
		return nil, fmt.Errorf("unsupported protocol %q", opts.Scheme)
	}
	target, err := url.Parse(fmt.Sprintf("%s://%s", scheme, strings.TrimPrefix(opts.Endpoint, "//")))
	if err != nil {
		return nil, err
	}
	if target.Host == "" {
		return nil, fmt.Errorf("endpoint %q has no host", opts.Endpoint)
	}

	client := resty.New()
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	if opts.BrowserTLS {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	if opts.UserAgent != "" {
		client.SetHeader("user-agent", opts.UserAgent)
	}
	client.SetRedirectPolicy(
		resty.FlexibleRedirectPolicy(maxRedirects),
		sameSiteRedirectPolicy(target.Hostname()),
	)
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second * 30
	}
	client.SetTimeout(timeout)

	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return &Client{
		Target: target,
		Http:   client,
	}, nil
}

const maxRedirects = 10

// site is the registrable domain of host (www.ohsu.edu -> ohsu.edu). IPs and
// single label hosts are their own site.
func site(host string) string {
	if net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// sameSiteRedirectPolicy follows redirects within the site of host, so a
// bounce through the campus login server still works but nothing leaves it.
func sameSiteRedirectPolicy(host string) resty.RedirectPolicy {
	allowed := site(host)
	return resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		next := req.URL.Hostname()
		if strings.EqualFold(next, host) || strings.EqualFold(site(next), allowed) {
			return nil
		}
		return fmt.Errorf("redirect to %s leaves %s", next, allowed)
	})
}

// Submission is what came back from the two requests of a trip submission.
type Submission struct {
	LoginStatus  int
	SubmitStatus int
	Body         []byte
}

// Submit logs in with a GET (which sets the session cookies) and then posts
// the trip to the same page in the same session. HTTP error statuses are not
// treated as failures, the returned page is what decides the outcome.
func (c *Client) Submit(ctx context.Context, login Login, trip Trip) (Submission, error) {
	ctx, span := tracer.Start(ctx, "client:Submit")
	defer span.End()

	var sub Submission

	res, err := c.Http.R().
		SetContext(ctx).
		SetBasicAuth(login.Username, login.Password).
		Get(c.Target.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch login page")
		return sub, fmt.Errorf("login: %w", err)
	}
	sub.LoginStatus = res.StatusCode()

	res, err = c.Http.R().
		SetContext(ctx).
		SetBasicAuth(login.Username, login.Password).
		SetFormDataFromValues(trip.Form()).
		Post(c.Target.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit trip form")
		return sub, fmt.Errorf("submit form: %w", err)
	}
	sub.SubmitStatus = res.StatusCode()
	sub.Body = res.Body()

	span.SetAttributes(
		attribute.Int("login_status", sub.LoginStatus),
		attribute.Int("submit_status", sub.SubmitStatus),
		attribute.Int("body_size", len(sub.Body)),
	)
	return sub, nil
}
