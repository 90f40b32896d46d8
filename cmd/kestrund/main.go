// Command kestrund starts a Host with a handful of example routes, one
// per guest-language family, and serves it on :8080 (or $PORT).
//
//	go run ./cmd/kestrund
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/kestrun/kestrun"
	"github.com/kestrun/kestrun/schema"
)

func main() {
	host := kestrun.NewHost(kestrun.WithPoolSize(8))

	routes := []schema.RouteDescriptor{
		{
			Method:        http.MethodGet,
			Pattern:       "/greet/{name}",
			GuestLanguage: schema.Shell,
			Script: `
local response = {}
response.body = {}
response.body.message = "hello " .. name
result = response
`,
			Parameters: []schema.ParameterDescriptor{
				{Name: "name", Location: schema.LocationPath, Kind: schema.ScalarString},
			},
		},
		{
			Method:        http.MethodGet,
			Pattern:       "/double/{value}",
			GuestLanguage: schema.Managed,
			Script:        `({body: {doubled: value * 2}})`,
			Parameters: []schema.ParameterDescriptor{
				{Name: "value", Location: schema.LocationPath, Kind: schema.ScalarInteger},
			},
		},
		{
			Method:        http.MethodGet,
			Pattern:       "/health",
			GuestLanguage: schema.ManagedAlt,
			Script:        `{body: {status: "ok"}}`,
		},
	}

	for _, route := range routes {
		if err := host.RegisterRoute(route); err != nil {
			log.Fatal(err)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("kestrund starting on port %s", port)
	log.Printf("Available endpoints:")
	log.Printf("  GET /greet/{name} - shell family")
	log.Printf("  GET /double/{value} - managed family")
	log.Printf("  GET /health - managedAlt family")

	if err := host.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
