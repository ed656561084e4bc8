package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hatlonely/rdbx/cfg"
	"github.com/hatlonely/rdbx/log"
	"github.com/hatlonely/rdbx/log/logger"
	"github.com/hatlonely/rdbx/rdb"
	"github.com/hatlonely/rdbx/rdb/database"
	"github.com/hatlonely/rdbx/ref"
	"github.com/hatlonely/rdbx/uid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Options 配置文件结构，见 config.yaml
type Options struct {
	Connection *ref.TypeOptions `cfg:"connection" validate:"required"`
	Logger     *ref.TypeOptions `cfg:"logger"`
	Entity     EntityOptions    `cfg:"entity"`
}

type EntityOptions struct {
	Name       string   `cfg:"name"`
	Table      string   `cfg:"table" validate:"required"`
	PrimaryKey string   `cfg:"primaryKey" def:"id"`
	Required   []string `cfg:"required"`
	Timestamps bool     `cfg:"timestamps"`

	// 字段名到类型的映射，类型为 string, int, float, bool, date, json
	Fields map[string]string `cfg:"fields"`

	// 主键生成器，为空时使用数据库自增 id
	IntKeys *ref.TypeOptions `cfg:"intKeys"`
	StrKeys *ref.TypeOptions `cfg:"strKeys"`
}

var (
	configFile string
	envPrefix  string

	conn database.Connection
	desc *rdb.Descriptor
	lg   logger.Logger
)

var rootCmd = &cobra.Command{
	Use:           "rdb",
	Short:         "rdb 命令行示例：按配置的实体查询、保存和删除记录",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if conn == nil {
			return nil
		}
		return conn.Close()
	},
}

func setup() error {
	var options Options
	if err := cfg.Load(configFile, &options, cfg.WithEnvPrefix(envPrefix)); err != nil {
		return err
	}

	lg = log.Default()
	if options.Logger != nil {
		l, err := log.NewLoggerWithOptions(options.Logger)
		if err != nil {
			return err
		}
		lg = l
		log.SetDefault(l)
	}

	d, err := newDescriptor(&options.Entity)
	if err != nil {
		return err
	}
	desc = d

	c, err := database.NewConnectionWithOptions(options.Connection)
	if err != nil {
		return errors.WithMessage(err, "create connection failed")
	}
	conn = c
	return nil
}

func newDescriptor(options *EntityOptions) (*rdb.Descriptor, error) {
	opts := []rdb.DescriptorOption{
		rdb.WithPrimaryKey(options.PrimaryKey),
		rdb.WithTimestamps(options.Timestamps),
	}
	if options.Name != "" {
		opts = append(opts, rdb.WithName(options.Name))
	}

	columns := make([]string, 0, len(options.Fields))
	for column := range options.Fields {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	for _, column := range columns {
		opts = append(opts, rdb.WithFields(rdb.FieldDefinition{
			Name: column,
			Type: rdb.FieldType(options.Fields[column]),
		}))
	}

	switch {
	case options.IntKeys != nil:
		gen, err := uid.NewIntGeneratorWithOptions(options.IntKeys)
		if err != nil {
			return nil, err
		}
		opts = append(opts, rdb.WithKeyGenerator(rdb.IntKeys(gen)))
	case options.StrKeys != nil:
		gen, err := uid.NewStrGeneratorWithOptions(options.StrKeys)
		if err != nil {
			return nil, err
		}
		opts = append(opts, rdb.WithKeyGenerator(rdb.StrKeys(gen)))
	}

	return rdb.NewDescriptor(options.Table, options.Required, opts...)
}

func newModel() *rdb.Model {
	return rdb.NewModel(desc, conn, rdb.WithLogger(lg))
}

func printRecord(v any) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "json.MarshalIndent failed")
	}
	fmt.Println(string(buf))
	return nil
}

// failure 把记录上的失败和反馈转换为命令的错误
func failure(m *rdb.Model, action string) error {
	if msg := m.Message(); !msg.Empty() {
		return errors.Errorf("%s: %s", action, msg.Text())
	}
	if m.Fail() != nil {
		return errors.WithMessage(m.Fail(), action)
	}
	return errors.New(action)
}

var findFlags struct {
	terms   string
	params  string
	columns []string
	group   string
	order   string
	limit   int
	offset  int
}

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "按条件查询记录",
	Example: `  rdb find --terms "price > :p" --params "p=2" --order "price DESC" --limit 10
  rdb find --columns id,name`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m := applyFind(newModel())
		if findFlags.group != "" {
			m.Group(findFlags.group)
		}
		if findFlags.order != "" {
			m.Order(findFlags.order)
		}
		if findFlags.limit > 0 {
			m.Limit(findFlags.limit)
		}
		if findFlags.offset > 0 {
			m.Offset(findFlags.offset)
		}

		records := m.FetchAll(cmd.Context())
		if records == nil {
			return failure(m, "find failed")
		}
		rows := make([]map[string]rdb.Value, 0, len(records))
		for _, r := range records {
			rows = append(rows, r.Data().Snapshot())
		}
		return printRecord(rows)
	},
}

func applyFind(m *rdb.Model) *rdb.Model {
	if findFlags.terms == "" && findFlags.params == "" && len(findFlags.columns) == 0 {
		return m
	}
	return m.Find(findFlags.terms, findFlags.params, findFlags.columns...)
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "统计符合条件的记录数",
	RunE: func(cmd *cobra.Command, args []string) error {
		m := applyFind(newModel())
		n := m.Count(cmd.Context())
		if m.Fail() != nil {
			return failure(m, "count failed")
		}
		fmt.Println(n)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "按主键查询记录",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := newModel()
		r := m.FindByID(cmd.Context(), args[0])
		if r == nil {
			if m.Fail() != nil {
				return failure(m, "get failed")
			}
			return errors.Errorf("%s %s not found", desc.Name(), args[0])
		}
		return printRecord(r.Data().Snapshot())
	},
}

var saveFlags struct {
	set []string
}

var saveCmd = &cobra.Command{
	Use:   "save [id]",
	Short: "插入或按主键更新记录",
	Example: `  rdb save --set name=Pen --set price=1.5
  rdb save 3 --set price=2`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := newModel()
		if len(args) == 1 {
			r := m.FindByID(cmd.Context(), args[0])
			if r == nil {
				return errors.Errorf("%s %s not found", desc.Name(), args[0])
			}
			m = r
		}
		for _, kv := range saveFlags.set {
			key, value, ok := strings.Cut(kv, "=")
			if !ok {
				return errors.Errorf("invalid --set %q, expect key=value", kv)
			}
			m.Set(key, value)
		}
		if !m.Save(cmd.Context()) {
			return failure(m, "save failed")
		}
		return printRecord(m.Data().Snapshot())
	},
}

var destroyCmd = &cobra.Command{
	Use:   "destroy <id>",
	Short: "按主键删除记录",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := newModel().FindByID(cmd.Context(), args[0])
		if r == nil {
			return errors.Errorf("%s %s not found", desc.Name(), args[0])
		}
		if !r.Destroy(cmd.Context()) {
			return failure(r, "destroy failed")
		}
		fmt.Printf("%s %s deleted\n", desc.Name(), args[0])
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "rdb/demo/config.yaml", "配置文件，支持 json/yaml/toml/ini")
	rootCmd.PersistentFlags().StringVar(&envPrefix, "env-prefix", "RDB", "覆盖配置项的环境变量前缀")

	for _, cmd := range []*cobra.Command{findCmd, countCmd} {
		cmd.Flags().StringVar(&findFlags.terms, "terms", "", "WHERE 条件，参数使用 :name 占位")
		cmd.Flags().StringVar(&findFlags.params, "params", "", "参数，形如 key=value&key2=value2")
	}
	findCmd.Flags().StringSliceVar(&findFlags.columns, "columns", nil, "查询的列，默认全部")
	findCmd.Flags().StringVar(&findFlags.group, "group", "", "GROUP BY 字段")
	findCmd.Flags().StringVar(&findFlags.order, "order", "", "ORDER BY 表达式")
	findCmd.Flags().IntVar(&findFlags.limit, "limit", 0, "LIMIT")
	findCmd.Flags().IntVar(&findFlags.offset, "offset", 0, "OFFSET")
	saveCmd.Flags().StringArrayVar(&saveFlags.set, "set", nil, "字段值，形如 key=value，可重复")

	rootCmd.AddCommand(findCmd, countCmd, getCmd, saveCmd, destroyCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
