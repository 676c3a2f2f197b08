package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"adcopy-engine/backend/internal/ai"
	"adcopy-engine/backend/internal/candidate"
	"adcopy-engine/backend/internal/config"
	"adcopy-engine/backend/internal/engine"
	"adcopy-engine/backend/internal/match"
	"adcopy-engine/backend/internal/persona"
	"adcopy-engine/backend/internal/refine"
	"adcopy-engine/backend/internal/scoring"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		logrus.Fatalf("rank: %v", err)
	}
}

type options struct {
	inputs       multiFlag
	persona      string
	goal         string
	brand        string
	mustBrand    bool
	keywords     string
	mustKeywords bool
	platform     string
	headline     int
	subline      int
	hashtags     int
	k            int
	threshold    float64
	banned       string
	personas     string
	refine       bool
	timeout      time.Duration
	output       string
}

func newFlagSet(opts *options) *flag.FlagSet {
	fs := flag.NewFlagSet("rank", flag.ContinueOnError)
	fs.Var(&opts.inputs, "input", "JSON file of raw candidates or model output (repeatable)")
	fs.StringVar(&opts.persona, "persona", "", "Persona token, e.g. \"20대 학생\"")
	fs.StringVar(&opts.goal, "goal", "", "Style goal: low_involvement, high_involvement or curiosity")
	fs.StringVar(&opts.brand, "brand", "", "Brand name")
	fs.BoolVar(&opts.mustBrand, "must-brand", false, "Require the brand in the final copy")
	fs.StringVar(&opts.keywords, "keywords", "", "Comma separated keywords")
	fs.BoolVar(&opts.mustKeywords, "must-keywords", false, "Require at least one keyword in the final copy")
	fs.StringVar(&opts.platform, "platform", "", "Target platform, e.g. instagram")
	fs.IntVar(&opts.headline, "headline", candidate.DefaultLimits().Headline, "Headline character limit")
	fs.IntVar(&opts.subline, "subline", candidate.DefaultLimits().Subline, "Subline character limit")
	fs.IntVar(&opts.hashtags, "hashtags", candidate.DefaultLimits().Hashtags, "Maximum hashtag count")
	fs.IntVar(&opts.k, "k", engine.DefaultDiversityK, "Number of diverse alternatives")
	fs.Float64Var(&opts.threshold, "threshold", engine.DefaultSimilarityThreshold, "Bigram similarity threshold")
	fs.StringVar(&opts.banned, "banned", "", "Banned terms JSON file (defaults to the built-in list)")
	fs.StringVar(&opts.personas, "personas", "", "Persona table YAML file (defaults to the built-in table)")
	fs.BoolVar(&opts.refine, "refine", false, "Use the configured generator for the corrective pass")
	fs.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Refinement timeout")
	fs.StringVar(&opts.output, "output", "", "Write the result JSON here instead of stdout")
	return fs
}

func parseFlags(args []string) (options, error) {
	var opts options
	if err := newFlagSet(&opts).Parse(args); err != nil {
		return options{}, err
	}
	if len(opts.inputs) == 0 {
		return options{}, errors.New("at least one -input is required")
	}
	return opts, nil
}

func run(args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	goal, ok := scoring.ParseGoal(opts.goal)
	if !ok {
		return fmt.Errorf("unknown goal %q", opts.goal)
	}

	var raws []candidate.Raw
	for _, path := range opts.inputs {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		parsed, err := candidate.ParseRaw(string(data))
		if err != nil {
			logrus.WithError(err).WithField("file", path).Warn("no usable candidates in input")
			continue
		}
		raws = append(raws, parsed...)
	}

	personas, err := persona.LoadTable(opts.personas)
	if err != nil {
		return err
	}
	banned, err := scoring.LoadBannedTerms(opts.banned)
	if err != nil {
		return err
	}

	var regenerate refine.Regenerator
	if opts.refine {
		gen, err := configuredGenerator()
		if err != nil {
			return err
		}
		regenerate = ai.Regenerator(gen)
	}

	eng := engine.New(personas, scoring.NewScorer(banned), engine.Config{
		DiversityK:          opts.k,
		SimilarityThreshold: opts.threshold,
		RefineTimeout:       opts.timeout,
	})
	res := eng.Produce(context.Background(), engine.Input{
		Raw:                 raws,
		Persona:             opts.persona,
		Goal:                goal,
		Brand:               strings.TrimSpace(opts.brand),
		MustIncludeBrand:    opts.mustBrand,
		Keywords:            match.SplitTerms(opts.keywords),
		MustIncludeKeywords: opts.mustKeywords,
		Limits: candidate.Limits{
			Headline: opts.headline,
			Subline:  opts.subline,
			Hashtags: opts.hashtags,
		},
		Platform:   opts.platform,
		Regenerate: regenerate,
	})

	logrus.WithFields(logrus.Fields{
		"inputs":      len(opts.inputs),
		"candidates":  len(res.Ranked),
		"placeholder": res.Placeholder,
		"refined":     res.Refinement.Refined,
	}).Info("ranking complete")

	if opts.output == "" {
		return writeResult(stdout, res)
	}
	if err := os.MkdirAll(filepath.Dir(opts.output), 0o755); err != nil {
		return err
	}
	file, err := os.Create(opts.output)
	if err != nil {
		return err
	}
	defer file.Close()
	return writeResult(file, res)
}

func configuredGenerator() (ai.Generator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if !cfg.AIEnabled() {
		logrus.Info("AI disabled or no API key; refinement uses the template generator")
		return ai.NewMockGenerator(), nil
	}
	client, err := ai.NewClient(cfg.AI())
	if err != nil {
		return nil, fmt.Errorf("ai client: %w", err)
	}
	return client, nil
}

func writeResult(w io.Writer, res engine.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(res)
}

type multiFlag []string

func (m *multiFlag) String() string {
	return strings.Join(*m, ",")
}

func (m *multiFlag) Set(value string) error {
	*m = append(*m, value)
	return nil
}
