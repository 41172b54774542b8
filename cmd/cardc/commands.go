package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/PuerkitoBio/goquery"
	json "github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/TanHoangarc/Admin/internal/constants"
	"github.com/TanHoangarc/Admin/internal/domain"
	"github.com/TanHoangarc/Admin/internal/service/artifact"
	"github.com/TanHoangarc/Admin/internal/service/compiler"
	"github.com/TanHoangarc/Admin/internal/service/profile"
	"github.com/TanHoangarc/Admin/internal/util"
)

// newArtifactService: 캐시 없이 동작하는 빌더
func newArtifactService(delay time.Duration, logger *slog.Logger) (*artifact.Service, error) {
	c, err := compiler.New(compiler.Options{RedirectDelay: delay})
	if err != nil {
		return nil, err
	}
	return artifact.NewService(c, nil, nil, artifact.DefaultConfig(), logger), nil
}

func readProfiles(path string) ([]*domain.Profile, error) {
	if path == "" {
		return nil, fmt.Errorf("-in is required")
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: CLI 인자로 받은 경로
	if err != nil {
		return nil, err
	}
	return profile.ParseProfiles(data)
}

func readProfile(path string) (*domain.Profile, error) {
	list, err := readProfiles(path)
	if err != nil {
		return nil, err
	}
	if len(list) != 1 {
		return nil, fmt.Errorf("%s contains %d profiles, expected 1 (use export for lists)", path, len(list))
	}
	return list[0], nil
}

func delayFlag(fs *flag.FlagSet) *time.Duration {
	return fs.Duration("delay", constants.CardDefaults.RedirectDelay, "redirect delay after copying a consultation message")
}

func runCompile(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	in := fs.String("in", "", "profile YAML/JSON file")
	out := fs.String("out", ".", "output directory")
	delay := delayFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := readProfile(*in)
	if err != nil {
		return err
	}
	svc, err := newArtifactService(*delay, util.NewLoggerTo(os.Stderr, "error"))
	if err != nil {
		return err
	}
	a, err := svc.Build(context.Background(), p)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}
	dest := filepath.Join(*out, a.FileName)
	if err := os.WriteFile(dest, a.Body, 0o644); err != nil { //nolint:gosec // G306: 공개 정적 파일
		return err
	}
	fmt.Fprintf(stdout, "%s\t%s\t%s\n", a.Slug, dest, a.Hash)
	return nil
}

func runExport(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	in := fs.String("in", "", "profile list YAML/JSON file")
	out := fs.String("out", "cards.zip", "zip archive path")
	delay := delayFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	profiles, err := readProfiles(*in)
	if err != nil {
		return err
	}
	svc, err := newArtifactService(*delay, util.NewLoggerTo(stderr, "warn"))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	summary, err := svc.ExportAll(context.Background(), profiles, &buf)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, buf.Bytes(), 0o644); err != nil { //nolint:gosec // G306: 공개 정적 파일
		return err
	}

	for _, e := range summary.Entries {
		fmt.Fprintf(stdout, "%s\t%s\n", e.Dir, e.URL)
	}
	for _, s := range summary.Skipped {
		fmt.Fprintf(stderr, "skipped profile %q: %s\n", s.ProfileID, s.Reason)
	}
	return nil
}

func runVCard(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("vcard", flag.ContinueOnError)
	in := fs.String("in", "", "profile YAML/JSON file")
	lang := fs.String("lang", string(domain.LanguageVi), "vi or en")
	out := fs.String("out", "", "output directory (stdout when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := readProfile(*in)
	if err != nil {
		return err
	}
	svc, err := newArtifactService(constants.CardDefaults.RedirectDelay, util.NewLoggerTo(os.Stderr, "error"))
	if err != nil {
		return err
	}
	card, err := svc.VCard(p, domain.Language(*lang))
	if err != nil {
		return err
	}

	if *out == "" {
		_, err = io.WriteString(stdout, card.Body)
		return err
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}
	dest := filepath.Join(*out, card.FileName)
	if err := os.WriteFile(dest, []byte(card.Body), 0o644); err != nil { //nolint:gosec // G306: 공개 연락처 파일
		return err
	}
	fmt.Fprintln(stdout, dest)
	return nil
}

// runInspect: 배포된 index.html 에서 카드 설정 JSON 을 꺼낸다.
func runInspect(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	in := fs.String("in", "", "compiled index.html")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("-in is required")
	}

	f, err := os.Open(*in)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}
	sel := doc.Find("script#" + compiler.ConfigElementID)
	if sel.Length() != 1 {
		return fmt.Errorf("%s has no card config element", *in)
	}

	var cfg domain.CardConfig
	if err := json.Unmarshal([]byte(sel.Text()), &cfg); err != nil {
		return fmt.Errorf("decode card config: %w", err)
	}
	pretty, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "%s\n", pretty)
	return err
}

func runHashPass(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("hashpass", flag.ContinueOnError)
	password := fs.String("password", "", "plain password (or CARD_PASSWORD env)")
	verify := fs.String("verify", "", "existing bcrypt hash to check instead of generating")
	if err := fs.Parse(args); err != nil {
		return err
	}

	plain := *password
	if plain == "" {
		plain = os.Getenv("CARD_PASSWORD")
	}
	if plain == "" {
		return fmt.Errorf("-password or CARD_PASSWORD is required")
	}

	if *verify != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(*verify), []byte(plain)); err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		fmt.Fprintln(stdout, "ok")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, string(hash))
	return nil
}
