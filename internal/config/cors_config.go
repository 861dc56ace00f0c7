package config

import "strings"

type Cors struct{}

var _ CorsConfig = Cors{}

type AllowedOrigins map[string]struct{}
type nullValue = struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	var origins []string
	for k := range a {
		origins = append(origins, k)
	}
	return strings.Join(origins, ", ")
}

var allowedOrigins = AllowedOrigins{
	"http://localhost:8081":   nullValue{},
	"http://127.0.0.1:8081":   nullValue{},
	"http://localhost:8787":   nullValue{},
	"http://127.0.0.1:8787":   nullValue{},
	"https://app.pratoapp.io": nullValue{},
}

func (Cors) GetAllowedOrigins() AllowedOrigins {
	origins := GetEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		return allowedOrigins
	}
	fromEnv := AllowedOrigins{}
	for _, origin := range strings.Split(origins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			fromEnv[origin] = nullValue{}
		}
	}
	return fromEnv
}

func (Cors) GetAllowedMethods() string {
	return "GET, POST, PUT, PATCH, DELETE"
}

func (Cors) GetAllowedHeaders() string {
	return "Content-Type, Authorization, Cookie"
}
