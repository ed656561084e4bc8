package cfg

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Format 配置文件格式
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatINI  Format = "ini"
)

// FormatOf 按扩展名判断格式
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".ini":
		return FormatINI, nil
	}
	return "", errors.Errorf("unsupported config file extension: %s", path)
}

// Decode 将配置内容解码为 Map
func Decode(data []byte, format Format) (Map, error) {
	result := map[string]interface{}{}
	switch format {
	case FormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&result); err != nil {
			return nil, errors.Wrap(err, "decode json failed")
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &result); err != nil {
			return nil, errors.Wrap(err, "decode yaml failed")
		}
	case FormatTOML:
		if _, err := toml.Decode(string(data), &result); err != nil {
			return nil, errors.Wrap(err, "decode toml failed")
		}
	case FormatINI:
		m, err := decodeINI(data)
		if err != nil {
			return nil, err
		}
		result = m
	default:
		return nil, errors.Errorf("unsupported format: %s", format)
	}
	return Map(result), nil
}

// decodeINI 默认分区的键放在顶层，a.b 形式的分区展开为嵌套结构
func decodeINI(data []byte) (map[string]interface{}, error) {
	file, err := ini.LoadSources(ini.LoadOptions{SpaceBeforeInlineComment: true}, data)
	if err != nil {
		return nil, errors.Wrap(err, "decode ini failed")
	}

	result := map[string]interface{}{}
	for _, section := range file.Sections() {
		target := result
		if section.Name() != ini.DefaultSection {
			for _, part := range strings.Split(section.Name(), ".") {
				child, ok := target[part].(map[string]interface{})
				if !ok {
					child = map[string]interface{}{}
					target[part] = child
				}
				target = child
			}
		}
		for _, key := range section.Keys() {
			target[key.Name()] = key.Value()
		}
	}
	return result, nil
}
