package database

import (
	"context"
	"testing"

	"github.com/hatlonely/rdbx/cfg"
	"github.com/hatlonely/rdbx/ref"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type appConfig struct {
	Database *ref.TypeOptions `cfg:"database" validate:"required"`
}

func TestNewConnectionWithOptions(t *testing.T) {
	t.Run("sql from config", func(t *testing.T) {
		var config appConfig
		require.NoError(t, cfg.LoadBytes([]byte(`
database:
  namespace: github.com/hatlonely/rdbx/rdb/database
  type: SQL
  options:
    driver: sqlite
    database: ":memory:"
    maxConns: 1
`), cfg.FormatYAML, &config))

		conn, err := NewConnectionWithOptions(config.Database)
		require.NoError(t, err)
		defer conn.Close()
		assert.IsType(t, &SQL{}, conn)
		assert.Equal(t, "sqlite", conn.(*SQL).Driver())

		st, err := conn.Prepare(context.Background(), "SELECT :a + :b AS sum")
		require.NoError(t, err)
		defer st.Close()
		require.NoError(t, st.Execute(context.Background(), map[string]any{"a": 1, "b": 2}))
		row, ok := st.FetchOne()
		assert.True(t, ok)
		assert.EqualValues(t, 3, row["sum"])
	})

	t.Run("observable wrapping gorm", func(t *testing.T) {
		var config appConfig
		require.NoError(t, cfg.LoadBytes([]byte(`{
			"database": {
				"namespace": "github.com/hatlonely/rdbx/rdb/database",
				"type": "ObservableConnection",
				"options": {
					"name": "config_test",
					"enableMetrics": true,
					"connection": {
						"namespace": "github.com/hatlonely/rdbx/rdb/database",
						"type": "Gorm",
						"options": {"driver": "sqlite", "database": ":memory:", "maxConns": 1}
					}
				}
			}
		}`), cfg.FormatJSON, &config))

		conn, err := NewConnectionWithOptions(config.Database)
		require.NoError(t, err)
		defer conn.Close()

		obs, ok := conn.(*ObservableConnection)
		require.True(t, ok)
		assert.IsType(t, &Gorm{}, obs.conn)
		assert.NotNil(t, obs.metrics)
		assert.Nil(t, obs.logger)
		assert.Equal(t, "config_test", obs.name)
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := NewConnectionWithOptions(nil)
		assert.Error(t, err)

		_, err = NewConnectionWithOptions(&ref.TypeOptions{Namespace: Namespace, Type: "Mongo"})
		assert.Error(t, err)

		_, err = NewConnectionWithOptions(&ref.TypeOptions{
			Namespace: Namespace,
			Type:      "SQL",
			Options:   cfg.Map{"driver": "oracle"},
		})
		assert.Error(t, err)

		_, err = NewConnectionWithOptions(&ref.TypeOptions{
			Namespace: "github.com/hatlonely/rdbx/log/writer",
			Type:      "ConsoleWriter",
			Options:   cfg.Map{},
		})
		assert.ErrorContains(t, err, "is not a Connection")
	})
}
