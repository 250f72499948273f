package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"resephub/internal/offline"
	"resephub/internal/pages"
	"resephub/internal/router"
	"resephub/pkg/logging"
)

const (
	defaultBaseURL    = "http://localhost:8080"
	defaultCookieName = "resephub_visitor"
)

type tokenData struct {
	Token string `json:"token"`
}

type client struct {
	http       *http.Client
	baseURL    string
	tokenPath  string
	cookieName string
}

func main() {
	global := flag.NewFlagSet("resep", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "site base URL")
	tokenPath := global.String("token", defaultPath("visitor.json"), "visitor token file")
	cacheDir := global.String("cache", defaultPath("cli-cache"), "offline cache directory (empty: memory)")
	cookieName := global.String("cookie", defaultCookieName, "visitor cookie name")
	if err := global.Parse(os.Args[1:]); err != nil {
		logging.Fatal().Err(err).Msg("parse flags")
	}
	logging.Init(logging.Config{Level: "warn", Format: "console"})

	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	base := strings.TrimRight(*baseURL, "/")
	cache, err := offline.OpenBadger(*cacheDir, "resep-cli")
	if err != nil {
		logging.Fatal().Err(err).Msg("open cache")
	}
	defer cache.Close()

	// pages are fetched network-first so the last copy is readable offline
	policy := offline.Policy{
		{Name: "pages", Match: offline.URLPrefix(base + "/"), Strategy: offline.NetworkFirst{}},
	}
	c := &client{
		http:       offline.NewTransport(http.DefaultTransport, cache, policy).Client(15 * time.Second),
		baseURL:    base,
		tokenPath:  *tokenPath,
		cookieName: *cookieName,
	}

	ctx := context.Background()
	if err := run(ctx, c, args[0], args[1:]); err != nil {
		cache.Close()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *client, cmd string, args []string) error {
	switch cmd {
	case "categories":
		return c.show(ctx, router.Route{Kind: router.KindCategories}.Path())
	case "category":
		if len(args) != 1 {
			return errors.New("usage: category <cid>")
		}
		return c.show(ctx, "/category/"+url.PathEscape(args[0]))
	case "search":
		q := strings.Join(args, " ")
		return c.show(ctx, "/search?q="+url.QueryEscape(q))
	case "favorites":
		return c.show(ctx, router.Route{Kind: router.KindFavorites}.Path())
	case "show":
		if len(args) != 1 {
			return errors.New("usage: show <slug|id>")
		}
		return c.show(ctx, router.Recipe(args[0]).Path())
	case "fav":
		if len(args) != 1 {
			return errors.New("usage: fav <slug|id>")
		}
		return c.toggle(ctx, args[0])
	case "listen":
		return c.listen()
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (c *client) show(ctx context.Context, path string) error {
	var p pages.Page
	status, err := c.do(ctx, http.MethodGet, path, &p)
	if err != nil {
		return err
	}
	printPage(os.Stdout, p)
	if status == http.StatusNotFound {
		return errors.New("not found")
	}
	return nil
}

func (c *client) toggle(ctx context.Context, key string) error {
	var out struct {
		ID       string `json:"id"`
		Favorite bool   `json:"favorite"`
	}
	status, err := c.do(ctx, http.MethodPost, router.Recipe(key).Path()+"/favorite", &out)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("toggle failed: status %d", status)
	}
	if out.Favorite {
		fmt.Printf("%s %s\n", pages.FavoriteOn, out.ID)
	} else {
		fmt.Printf("%s %s\n", pages.FavoriteOff, out.ID)
	}
	return nil
}

// do sends a JSON request carrying the saved visitor token and keeps any
// token the server hands back.
func (c *client) do(ctx context.Context, method, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if token, err := readToken(c.tokenPath); err == nil && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	for _, ck := range resp.Cookies() {
		if ck.Name == c.cookieName && ck.Value != "" {
			if err := saveToken(c.tokenPath, ck.Value); err != nil {
				logging.Warn().Err(err).Msg("save visitor token")
			}
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return resp.StatusCode, fmt.Errorf("%s %s failed: %s", method, path, strings.TrimSpace(string(data)))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s: %w", path, err)
	}
	return resp.StatusCode, nil
}

func (c *client) listen() error {
	u, err := websocketURL(c.baseURL, "/ws")
	if err != nil {
		return err
	}
	h := http.Header{}
	if token, err := readToken(c.tokenPath); err == nil && token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	ws, _, err := websocket.DefaultDialer.Dial(u, h)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u, err)
	}
	defer ws.Close()

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			return err
		}
		fmt.Print(string(msg))
	}
}

func printPage(w io.Writer, p pages.Page) {
	fmt.Fprintf(w, "== %s ==\n", p.Title)
	if p.Status.Message != "" {
		fmt.Fprintf(w, "(%s)\n", p.Status.Message)
	}

	if g := p.CategoryGrid; g != nil {
		for _, c := range g.Cards {
			fmt.Fprintf(w, "  %-24s %s\n", c.Name, c.Link)
		}
		printPlaceholder(w, g.Placeholder)
	}
	if l := p.RecipeList; l != nil {
		printCards(w, l.Cards)
		printPlaceholder(w, l.Placeholder)
	}
	if s := p.Search; s != nil {
		printCards(w, s.Cards)
		printPlaceholder(w, s.Placeholder)
	}
	if d := p.Detail; d != nil {
		meta := []string{}
		for _, v := range []string{d.Category, d.Time, d.Servings} {
			if v != "" {
				meta = append(meta, v)
			}
		}
		fmt.Fprintln(w, strings.Join(meta, " · "))
		if d.Description != "" {
			fmt.Fprintf(w, "\n%s\n", d.Description)
		}
		fmt.Fprintln(w, "\nBahan:")
		for _, ing := range d.Ingredients {
			fmt.Fprintf(w, "  • %s\n", ing)
		}
		fmt.Fprintln(w, "\nLangkah:")
		for i, s := range d.Steps {
			fmt.Fprintf(w, "  %d) %s\n", i+1, s)
		}
		fmt.Fprintf(w, "\n%s\n", d.FavoriteLabel)
	}
}

func printCards(w io.Writer, cards []pages.RecipeCard) {
	for _, c := range cards {
		fmt.Fprintf(w, "  %-32s %-28s %s\n", c.Title, c.Meta, c.Link)
	}
}

func printPlaceholder(w io.Writer, s string) {
	if s != "" {
		fmt.Fprintf(w, "  %s\n", s)
	}
}

func defaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.resephub-" + name
	}
	return filepath.Join(home, ".resephub", name)
}

func saveToken(path, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tokenData{Token: token}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return "", err
	}
	return strings.TrimSpace(td.Token), nil
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}

func printUsage() {
	fmt.Println("resep [-api URL] <command> [args]")
	fmt.Println("commands:")
	fmt.Println("  categories")
	fmt.Println("  category <cid>")
	fmt.Println("  search <query>")
	fmt.Println("  favorites")
	fmt.Println("  show <slug|id>")
	fmt.Println("  fav <slug|id>")
	fmt.Println("  listen")
}
