// claimsctl drives a claims backend from the terminal: inspect records,
// edit fields, move claims through their lifecycle and attach files.
package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/goliatone/go-logger/glog"
	"github.com/joho/godotenv"

	claims "github.com/goliatone/go-claims"
	"github.com/goliatone/go-claims/changeset"
	"github.com/goliatone/go-claims/client"
	"github.com/goliatone/go-claims/janitor"
	"github.com/goliatone/go-claims/lifecycle"
	"github.com/goliatone/go-claims/transition"
	"github.com/goliatone/go-claims/upload"
	"github.com/goliatone/go-claims/viewcache"
)

type cliContext struct {
	client *client.Client
	cache  *viewcache.Cache
	logger claims.Logger
}

type cli struct {
	Config  string `help:"Path to the YAML config file." type:"path" env:"CLAIMS_CONFIG"`
	Verbose bool   `short:"v" help:"Enable debug logging."`

	Show   showCmd   `cmd:"" help:"Fetch and print one claim."`
	List   listCmd   `cmd:"" help:"List claims with their statuses."`
	Create createCmd `cmd:"" help:"Create a claim, staging attachments first."`
	Update updateCmd `cmd:"" help:"Edit claim fields; only changed fields are sent."`
	Move   moveCmd   `cmd:"" help:"Move a claim to another lifecycle status."`
	Upload uploadCmd `cmd:"" help:"Attach files to an existing claim."`
	Watch  watchCmd  `cmd:"" help:"Poll a claim until it reaches a terminal status."`
}

func main() {
	// Local .env values never override the real environment.
	godotenv.Load()

	var flags cli
	parser := kong.Parse(&flags,
		kong.Name("claimsctl"),
		kong.Description("Claims lifecycle tooling."),
		kong.UsageOnError(),
	)

	level := "info"
	if flags.Verbose {
		level = "debug"
	}
	logger := glogAdapter{logger: glog.NewLogger(
		glog.WithWriter(os.Stderr),
		glog.WithLevel(level),
	)}

	cfg, err := client.LoadConfig(flags.Config)
	if err != nil {
		fail(err)
	}
	api, err := client.New(cfg, client.WithLogger(logger))
	if err != nil {
		fail(err)
	}

	ctx := &cliContext{
		client: api,
		cache:  viewcache.New(viewcache.WithLogger(logger)),
		logger: logger,
	}
	parser.FatalIfErrorf(parser.Run(ctx))
}

// fail renders a taxonomy error the way the edit surfaces would.
func fail(err error) {
	display := claims.Display(err)
	fmt.Fprintf(os.Stderr, "%s\n  %s\n", display.Title, display.Description)
	for _, item := range display.Items {
		fmt.Fprintf(os.Stderr, "  - %s: %s\n", item.Label, item.Message)
	}
	os.Exit(1)
}

// glogAdapter satisfies the module's Logger contract over go-logger.
type glogAdapter struct {
	logger glog.Logger
}

func (l glogAdapter) Trace(msg string, args ...any) { l.logger.Trace(msg, args...) }
func (l glogAdapter) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l glogAdapter) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l glogAdapter) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l glogAdapter) Error(msg string, args ...any) { l.logger.Error(msg, args...) }
func (l glogAdapter) Fatal(msg string, args ...any) { l.logger.Fatal(msg, args...) }

func (l glogAdapter) WithContext(ctx context.Context) claims.Logger {
	return glogAdapter{logger: l.logger.WithContext(ctx)}
}

type showCmd struct {
	ID string `arg:"" help:"Claim identifier."`
}

func (c *showCmd) Run(ctx *cliContext) error {
	record, ok := ctx.cache.Detail(c.ID)
	if !ok {
		var err error
		record, err = ctx.client.GetClaim(context.Background(), c.ID)
		if err != nil {
			fail(err)
		}
		ctx.cache.PutDetail(record)
	}

	snapshot := lifecycle.SnapshotFor(record.Status)
	fmt.Printf("%s  [%s]\n", record.ID, record.Status.Label())
	for _, field := range claims.AllFields() {
		if value := record.Field(field); value != nil {
			fmt.Printf("  %-22s %v\n", field.Label()+":", value)
		}
	}
	if len(snapshot.AllowedTransitions) > 0 {
		fmt.Println("Available moves:")
		for _, t := range snapshot.AllowedTransitions {
			suffix := ""
			if t.ReasonRequired {
				suffix = " (reason required)"
			}
			fmt.Printf("  -> %s%s\n", t.Label, suffix)
		}
	}
	return nil
}

type listCmd struct{}

func (c *listCmd) Run(ctx *cliContext) error {
	items, ok := ctx.cache.List("all")
	if !ok {
		var err error
		items, err = ctx.client.ListClaims(context.Background())
		if err != nil {
			fail(err)
		}
		ctx.cache.PutList("all", items)
	}
	for _, item := range items {
		fmt.Printf("%-36s %-20s %s\n", item.ID, item.Status.Label(), item.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

type createCmd struct {
	Field []string `short:"f" help:"Field assignment, e.g. -f claimant_name='Ada Smith'."`
	File  []string `help:"Files to stage and associate with the new claim." type:"existingfile"`
}

func (c *createCmd) Run(ctx *cliContext) error {
	fields, err := parseAssignments(c.Field)
	if err != nil {
		return err
	}

	var pipeline *upload.Pipeline
	if len(c.File) > 0 {
		pipeline = upload.NewPipeline(
			upload.NewStagedAdapter(ctx.client),
			upload.NewHTTPTransport(nil),
			upload.WithPipelineLogger(ctx.logger),
		)
		defer pipeline.Close()
		if err := addLocalFiles(pipeline, c.File); err != nil {
			fail(err)
		}
	}

	record, err := ctx.client.CreateClaimWithUploads(context.Background(), fields, pipeline)
	if err != nil {
		if pipeline != nil {
			printFiles(pipeline)
		}
		fail(err)
	}
	fmt.Printf("created %s in %s\n", record.ID, record.Status.Label())
	return nil
}

type updateCmd struct {
	ID  string   `arg:"" help:"Claim identifier."`
	Set []string `short:"s" required:"" help:"Field assignment, e.g. -s policy_number=P-200."`
}

func (c *updateCmd) Run(ctx *cliContext) error {
	assignments, err := parseAssignments(c.Set)
	if err != nil {
		return err
	}

	record, err := ctx.client.GetClaim(context.Background(), c.ID)
	if err != nil {
		fail(err)
	}

	draft := changeset.FromClaim(record)
	for field, value := range assignments {
		draft[field] = value
	}

	updated, err := ctx.client.SaveClaim(context.Background(), record, draft)
	if err != nil {
		fail(err)
	}
	ctx.cache.PutDetail(updated)
	fmt.Printf("updated %s\n", updated.ID)
	return nil
}

type moveCmd struct {
	ID     string `arg:"" help:"Claim identifier."`
	Target string `arg:"" help:"Target status, e.g. IN_REVIEW."`
	Yes    bool   `short:"y" help:"Skip the confirmation prompt."`
	Reason string `help:"Reason text, prompted for interactively when omitted."`
}

func (c *moveCmd) Run(ctx *cliContext) error {
	target, ok := claims.ParseStatus(c.Target)
	if !ok {
		return fmt.Errorf("unknown status %q", c.Target)
	}

	record, err := ctx.client.GetClaim(context.Background(), c.ID)
	if err != nil {
		fail(err)
	}

	orch := transition.New(ctx.client, newTerminalPrompter(c.Yes, c.Reason),
		transition.WithLogger(ctx.logger),
		transition.WithInvalidator(ctx.cache),
	)

	result, err := orch.RequestTransition(context.Background(), record, target)
	if err != nil {
		fail(err)
	}
	switch result.Outcome {
	case transition.OutcomeCompleted:
		fmt.Printf("%s is now %s\n", result.Projection.ID, result.Projection.Status.Label())
	case transition.OutcomeCancelled:
		fmt.Println("cancelled")
	}
	return nil
}

type uploadCmd struct {
	ID    string   `arg:"" help:"Claim identifier."`
	Files []string `arg:"" help:"Files to attach." type:"existingfile"`
}

func (c *uploadCmd) Run(ctx *cliContext) error {
	pipeline := upload.NewPipeline(
		upload.NewAttachmentAdapter(ctx.client, c.ID),
		upload.NewHTTPTransport(nil),
		upload.WithPipelineLogger(ctx.logger),
	)
	defer pipeline.Close()

	if err := addLocalFiles(pipeline, c.Files); err != nil {
		fail(err)
	}
	if err := pipeline.Wait(context.Background()); err != nil {
		fail(err)
	}

	printFiles(pipeline)
	if pipeline.HasErrors() {
		os.Exit(1)
	}
	ctx.cache.InvalidateDetail(c.ID)
	return nil
}

type watchCmd struct {
	ID       string        `arg:"" help:"Claim identifier."`
	Interval time.Duration `default:"5s" help:"Poll interval."`
}

func (c *watchCmd) Run(ctx *cliContext) error {
	// Long-lived command, so run the cache hygiene alongside the polling.
	sweeper := janitor.New(janitor.WithLogger(ctx.logger))
	if err := sweeper.Every("@every 1m", "viewcache-sweep", func() error {
		ctx.cache.SweepStale(10 * time.Minute)
		return nil
	}); err != nil {
		return err
	}
	sweeper.Start()
	defer sweeper.Stop()

	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	last := claims.Status("")
	for {
		record, err := ctx.client.GetClaim(context.Background(), c.ID)
		if err != nil {
			fail(err)
		}
		ctx.cache.PutDetail(record)
		if record.Status != last {
			fmt.Printf("%s  %s\n", time.Now().Format(time.RFC3339), record.Status.Label())
			last = record.Status
		}
		if lifecycle.IsTerminal(record.Status) {
			return nil
		}
		<-ticker.C
	}
}

// parseAssignments turns key=value pairs into a change-set, rejecting
// unknown field identifiers.
func parseAssignments(pairs []string) (changeset.Values, error) {
	out := changeset.Values{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		field, known := claims.ParseField(strings.TrimSpace(key))
		if !known {
			return nil, fmt.Errorf("unknown field %q", key)
		}
		if value == "" {
			out[field] = nil
			continue
		}
		out[field] = value
	}
	return out, nil
}

func addLocalFiles(pipeline *upload.Pipeline, paths []string) error {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return claims.CloneError(claims.ErrUnknown, "stat file", err, nil)
		}
		contentType := mime.TypeByExtension(filepath.Ext(path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		p := path
		_, err = pipeline.Add(context.Background(), upload.FileInput{
			Name:        filepath.Base(p),
			ContentType: contentType,
			Size:        info.Size(),
			Open:        func() (io.ReadCloser, error) { return os.Open(p) },
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func printFiles(pipeline *upload.Pipeline) {
	for _, f := range pipeline.Files() {
		line := fmt.Sprintf("%-30s %-10s %3.0f%%", f.Name, f.Status, f.Progress*100)
		if f.Error != "" {
			line += "  " + f.Error
		}
		fmt.Println(line)
	}
}
