package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joeshaw/envdecode"
	"github.com/sirupsen/logrus"

	"github.com/sisgemec/sisgemec/core/backend"
	"github.com/sisgemec/sisgemec/core/logger"
	"github.com/sisgemec/sisgemec/core/supabase"
)

// Service holds the configuration for this service
//
// use SUPABASE_URL="https://<project>.supabase.co" and the project's anon key.
// The JWT settings mirror the Supabase project configuration; token
// validation itself is delegated to GoTrue.
type Service struct {
	SupabaseURL     string `env:"SUPABASE_URL,required" description:"base URL of the Supabase project"`
	SupabaseAnonKey string `env:"SUPABASE_ANON_KEY,required" description:"anonymous API key of the Supabase project"`
	JWTSecret       string `env:"JWT_SECRET,optional" description:"JWT secret of the Supabase project"`
	JWTAlgorithm    string `env:"JWT_ALGORITHM,default=HS256" description:"JWT signing algorithm"`
	JWTExpiration   int    `env:"JWT_EXPIRATION,default=3600" description:"JWT expiration in seconds"`
	Port            string `env:"PORT,default=3000" description:"HTTP port to listen on"`
}

func main() {
	service := &Service{}
	if err := envdecode.Decode(service); err != nil {
		panic(err)
	}

	logger.InitLogger(logrus.DebugLevel)

	router := mux.NewRouter()
	backend.New(&backend.Builder{
		Supabase: supabase.New(service.SupabaseURL, service.SupabaseAnonKey),
		Router:   router,
	})

	logger.Default().Infoln("listen on port :" + service.Port)
	http.ListenAndServe(":"+service.Port, router)
}
