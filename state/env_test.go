package state

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"stylecore/cascade"
	"stylecore/config"
	"stylecore/css"
	"stylecore/dom"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	return cfg
}

func TestContextWithEnv(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))
	if env.start.IsZero() {
		t.Error("Environment start time not set")
	}
	if len(env.DefaultUserAgent) == 0 {
		t.Error("default user agent stylesheet not set")
	}
}

func TestEnvFromContext_Missing(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when env not in context")
		}
	}()
	EnvFromContext(context.Background())
}

func TestLocalEnv_Uptime(t *testing.T) {
	env := &LocalEnv{start: time.Now()}
	time.Sleep(10 * time.Millisecond)
	if uptime := env.Uptime(); uptime < 10*time.Millisecond || uptime > time.Second {
		t.Errorf("Uptime() = %v", uptime)
	}
}

func TestLocalEnv_RedirectAndRestore(t *testing.T) {
	env := &LocalEnv{
		Log: zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))),
	}
	for i := range 3 {
		env.RedirectStdLog()
		if env.restoreStdLog == nil {
			t.Errorf("Iteration %d: restoreStdLog not set", i)
		}
		env.RestoreStdLog()
	}

	quiet := &LocalEnv{}
	quiet.RedirectStdLog()
	if quiet.restoreStdLog != nil {
		t.Error("Expected restoreStdLog to remain nil without logger")
	}
	quiet.RestoreStdLog()
}

func TestDefaultUserAgent(t *testing.T) {
	env := newLocalEnv()
	opts := css.DefaultParseOptions()
	opts.Origin = css.OriginUserAgent
	ua := css.NewParser(zap.NewNop(), opts).Parse(env.DefaultUserAgent, "ua.css")
	if len(ua.Diagnostics) != 0 {
		t.Fatalf("user agent stylesheet has diagnostics: %v", ua.Diagnostics)
	}
	if len(ua.Rules) == 0 {
		t.Fatal("user agent stylesheet has no rules")
	}
}

func TestLocalEnv_Cascade(t *testing.T) {
	env := newLocalEnv()
	env.Cfg = testConfig(t)
	env.Cfg.Viewport.RootFontSize = 20
	env.Cfg.Cascade.PseudoElements = nil
	env.Log = zaptest.NewLogger(t)
	env.Cache = cascade.NewCache()

	ua := env.Stylesheet(env.DefaultUserAgent, css.OriginUserAgent, "ua.css")
	if again := env.Stylesheet(env.DefaultUserAgent, css.OriginUserAgent, "ua.css"); again != ua {
		t.Error("second parse should come from cache")
	}
	author := env.Stylesheet([]byte(`p { margin: 2rem }`), css.OriginAuthor, "a.css")

	tree := dom.NewTree()
	html := tree.Add(dom.NoNode, "html", nil)
	body := tree.Add(html, "body", nil)
	p := tree.Add(body, "p", nil)

	styles, err := cascade.Tree(context.Background(), env.Resolver(ua, author), tree, env.TreeOptions())
	if err != nil {
		t.Fatal(err)
	}
	if got := styles.Style(body).Keyword("display"); got != "block" {
		t.Errorf("user agent display for body: %q", got)
	}
	if got := styles.Style(p).Value("margin-top"); got.Number != 40 {
		t.Errorf("rem against configured root font size: %+v", got)
	}
	if st := env.Cache.Stats(); st.Styles != 3 || st.Stylesheets != 2 {
		t.Errorf("cache stats: %+v", st)
	}
}
