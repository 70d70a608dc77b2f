package logger

import (
	"sync"
)

// defaultComponents lists the components datakit logs under. RegisterDefaults
// creates one logger per entry.
var defaultComponents = []string{
	"datasource",
	"union",
	"retrieval",
	"memory",
	"observability",
}

var (
	registryMu sync.RWMutex
	registered = make(map[string]*Logger)
)

// Register installs l under a component name so later Get calls return it.
// Registering the same name again replaces the earlier logger.
func Register(name string, l *Logger) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registered[name] = l
}

// Get looks up the logger for a component. Names that were never registered
// fall back to the global logger tagged with the component, so callers need
// no setup before using Get.
func Get(name string) *Logger {
	registryMu.RLock()
	l, ok := registered[name]
	registryMu.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}

// RegisterDefaults derives a logger for every datakit component from the
// current global logger. Call it after Init so per-component loggers pick up
// the configured level and format.
func RegisterDefaults() {
	for _, name := range defaultComponents {
		Register(name, GetGlobalLogger().WithComponent(name))
	}
}
