package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hatlonely/rdbx/ref"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type poolOptions struct {
	MaxConns int           `cfg:"maxConns" def:"10"`
	Lifetime time.Duration `cfg:"lifetime" def:"1m"`
}

type serviceOptions struct {
	Name       string           `cfg:"name" validate:"required"`
	Debug      bool             `cfg:"debug"`
	Ratio      float64          `cfg:"ratio" def:"0.5"`
	Tags       []string         `cfg:"tags"`
	Pool       poolOptions      `cfg:"pool"`
	Connection *ref.TypeOptions `cfg:"connection"`
	Ignored    string           `cfg:"-"`
}

var documents = map[string]string{
	"service.json": `{
  "name": "catalog",
  "debug": true,
  "ratio": 0.75,
  "tags": ["a", "b"],
  "pool": {"maxConns": 20, "lifetime": "30s"},
  "connection": {"namespace": "cfg-test", "type": "Conn", "options": {"dsn": "file.db", "maxConns": 3}},
  "ignored": "x"
}`,
	"service.yaml": `
name: catalog
debug: true
ratio: 0.75
tags: [a, b]
pool:
  maxConns: 20
  lifetime: 30s
connection:
  namespace: cfg-test
  type: Conn
  options:
    dsn: file.db
    maxConns: 3
ignored: x
`,
	"service.toml": `
name = "catalog"
debug = true
ratio = 0.75
tags = ["a", "b"]
ignored = "x"

[pool]
maxConns = 20
lifetime = "30s"

[connection]
namespace = "cfg-test"
type = "Conn"

[connection.options]
dsn = "file.db"
maxConns = 3
`,
	"service.ini": `
name = catalog
debug = true
ratio = 0.75
tags = a, b
ignored = x

[pool]
maxConns = 20
lifetime = 30s

[connection]
namespace = cfg-test
type = Conn

[connection.options]
dsn = file.db
maxConns = 3
`,
}

type connOptions struct {
	DSN      string `cfg:"dsn" validate:"required"`
	MaxConns int    `cfg:"maxConns"`
	MaxIdle  int    `cfg:"maxIdle" def:"2"`
}

type conn struct {
	options *connOptions
}

func init() {
	ref.MustRegister("cfg-test", "Conn", func(options *connOptions) *conn {
		return &conn{options: options}
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	for name, content := range documents {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))

			var options serviceOptions
			require.NoError(t, Load(path, &options))

			assert.Equal(t, "catalog", options.Name)
			assert.True(t, options.Debug)
			assert.Equal(t, 0.75, options.Ratio)
			assert.Equal(t, []string{"a", "b"}, options.Tags)
			assert.Equal(t, 20, options.Pool.MaxConns)
			assert.Equal(t, 30*time.Second, options.Pool.Lifetime)
			assert.Empty(t, options.Ignored)

			require.NotNil(t, options.Connection)
			assert.Equal(t, "cfg-test", options.Connection.Namespace)
			assert.IsType(t, Map{}, options.Connection.Options)

			obj, err := ref.NewWithOptions(options.Connection)
			require.NoError(t, err)
			c := obj.(*conn)
			assert.Equal(t, "file.db", c.options.DSN)
			assert.Equal(t, 3, c.options.MaxConns)
			assert.Equal(t, 2, c.options.MaxIdle)
		})
	}
}

func TestLoadDefaultsAndValidation(t *testing.T) {
	var options serviceOptions
	require.NoError(t, LoadBytes([]byte(`{"name": "x"}`), FormatJSON, &options))
	assert.Equal(t, 0.5, options.Ratio)
	assert.Equal(t, 10, options.Pool.MaxConns)
	assert.Equal(t, time.Minute, options.Pool.Lifetime)
	assert.Nil(t, options.Connection)

	err := LoadBytes([]byte(`{"debug": true}`), FormatJSON, &serviceOptions{})
	assert.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	var options serviceOptions
	assert.Error(t, Load("service.xml", &options))
	assert.Error(t, Load(filepath.Join(t.TempDir(), "missing.yaml"), &options))
	assert.Error(t, LoadBytes([]byte(`{`), FormatJSON, &options))
	assert.Error(t, LoadBytes([]byte(`{"name": "x", "pool": {"maxConns": "many"}}`), FormatJSON, &options))
	assert.Error(t, LoadBytes([]byte(`{"name": "x"}`), FormatJSON, options))
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("RDBX_NAME", "from-env")
	t.Setenv("RDBX_POOL_MAX_CONNS", "42")
	t.Setenv("RDBX_CONNECTION_OPTIONS_DSN", "env.db")

	data := []byte(documents["service.yaml"])

	var options serviceOptions
	require.NoError(t, LoadBytes(data, FormatYAML, &options, WithEnvPrefix("RDBX")))
	assert.Equal(t, "from-env", options.Name)
	assert.Equal(t, 42, options.Pool.MaxConns)

	obj, err := ref.NewWithOptions(options.Connection)
	require.NoError(t, err)
	assert.Equal(t, "env.db", obj.(*conn).options.DSN)

	var plain serviceOptions
	require.NoError(t, LoadBytes(data, FormatYAML, &plain))
	assert.Equal(t, "catalog", plain.Name)
}

func TestMap(t *testing.T) {
	m, err := Decode([]byte(documents["service.yaml"]), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "catalog", m.Get("name"))
	assert.Equal(t, "file.db", m.Get("connection.options.dsn"))
	assert.Nil(t, m.Get("connection.missing.dsn"))
	assert.Equal(t, "file.db", m.Sub("connection").Sub("options").Get("dsn"))
	assert.Empty(t, m.Sub("name"))

	var pool poolOptions
	require.NoError(t, m.Sub("pool").ConvertTo(&pool))
	assert.Equal(t, 20, pool.MaxConns)
}

func TestEnvName(t *testing.T) {
	for key, want := range map[string]string{
		"maxConns":        "MAX_CONNS",
		"dsn":             "DSN",
		"connMaxLifetime": "CONN_MAX_LIFETIME",
		"key-name":        "KEY_NAME",
		"v2Name":          "V2_NAME",
	} {
		assert.Equal(t, want, envName(key))
	}
}
