package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// RouteInfo describes one registered route.
type RouteInfo struct {
	Method  string `json:"method" yaml:"method"`
	Path    string `json:"path" yaml:"path"`
	Handler string `json:"handler" yaml:"handler"`
}

// RouteFilters narrows a route listing.
type RouteFilters struct {
	Method string
	Path   string
}

// CollectRoutes lists the routes of router sorted by path, then method.
func CollectRoutes(router Router) []RouteInfo {
	var routes []RouteInfo
	_ = router.Walk(func(method, path string, h http.Handler) error {
		routes = append(routes, RouteInfo{Method: method, Path: path, Handler: handlerName(h)})
		return nil
	})

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	return routes
}

// handlerName resolves the method name behind a handler func, e.g.
// "handler.(*DebtorHandler).Search".
func handlerName(h http.Handler) string {
	v := reflect.ValueOf(h)
	if v.Kind() != reflect.Func {
		return fmt.Sprintf("%T", h)
	}
	fn := runtime.FuncForPC(v.Pointer())
	if fn == nil {
		return fmt.Sprintf("%T", h)
	}
	name := fn.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}

// PrintRoutes writes routes as a table, "json" or "yaml".
func PrintRoutes(w io.Writer, routes []RouteInfo, format string, filters RouteFilters) error {
	routes = filterRoutes(routes, filters)

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(routes)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(routes)
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "METHOD\tPATH\tHANDLER")
		for _, r := range routes {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Method, r.Path, r.Handler)
		}
		return tw.Flush()
	}
}

func filterRoutes(routes []RouteInfo, f RouteFilters) []RouteInfo {
	if f.Method == "" && f.Path == "" {
		return routes
	}
	out := make([]RouteInfo, 0, len(routes))
	for _, r := range routes {
		if f.Method != "" && !strings.EqualFold(r.Method, f.Method) {
			continue
		}
		if f.Path != "" && !strings.Contains(r.Path, f.Path) {
			continue
		}
		out = append(out, r)
	}
	return out
}
