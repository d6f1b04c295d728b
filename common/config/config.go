// Package config provides a tiny layered config system, options are
// registered at package init time by the components that use them and
// resolved from the registered sources when Load is called.
package config

import (
	"strconv"
	"strings"
)

// Source provides values for registered options, sources added later
// take priority over earlier ones.
type Source interface {
	GetValue(key string) interface{}
	Name() string
}

type Option struct {
	Name         string
	Description  string
	DefaultValue interface{}
	LoadedValue  interface{}

	manager *Manager
	source  Source
}

func (opt *Option) loadValue() {
	newVal := opt.DefaultValue
	opt.source = nil

	for i := len(opt.manager.sources) - 1; i >= 0; i-- {
		source := opt.manager.sources[i]

		if v := source.GetValue(opt.Name); v != nil {
			newVal = v
			opt.source = source
			break
		}
	}

	// coerce to the default's type ahead of time so the typed getters are cheap
	switch opt.DefaultValue.(type) {
	case int:
		newVal = intVal(newVal)
	case bool:
		newVal = boolVal(newVal)
	}

	opt.LoadedValue = newVal
}

func (opt *Option) GetString() string {
	switch t := opt.LoadedValue.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	}
	return ""
}

func (opt *Option) GetInt() int {
	return intVal(opt.LoadedValue)
}

func (opt *Option) GetBool() bool {
	return boolVal(opt.LoadedValue)
}

type Manager struct {
	sources []Source
	Options map[string]*Option
}

func NewManager() *Manager {
	return &Manager{
		Options: make(map[string]*Option),
	}
}

func (m *Manager) AddSource(source Source) {
	m.sources = append(m.sources, source)
}

func (m *Manager) RegisterOption(name, desc string, defaultValue interface{}) *Option {
	opt := &Option{
		Name:         name,
		Description:  desc,
		DefaultValue: defaultValue,
		manager:      m,
	}

	m.Options[name] = opt
	return opt
}

func (m *Manager) Load() {
	for _, v := range m.Options {
		v.loadValue()
	}
}

func intVal(i interface{}) int {
	switch t := i.(type) {
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return int(n)
	case int:
		return t
	}

	return 0
}

func boolVal(i interface{}) bool {
	switch t := i.(type) {
	case string:
		lower := strings.ToLower(t)
		return lower == "true" || lower == "yes" || lower == "on" || lower == "enabled" || lower == "1"
	case bool:
		return t
	case int:
		return t != 0
	}

	return false
}
