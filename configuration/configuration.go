package configuration

type Configuration struct {
	HttpAddr          string `usage:"HTTP address"`
	Dir               string `usage:"data directory"`
	AllowedOrigins    string `usage:"comma-separated list of allowed CORS origins, '*' allows any"`
	MaxLimit          int    `usage:"maximum page size"`
	MaxScan           int    `usage:"maximum documents visited by the nested id scan"`
	MaxInsertBatch    int    `usage:"maximum documents accepted in one insert"`
	HandleTTLSeconds  int    `usage:"collection handle expiry in seconds, 0 disables"`
	EnableCompression bool   `usage:"gzip responses"`
	ShowBanner        bool   `usage:"show big banner"`
	ShowConfig        bool   `usage:"print config"`
	Version           bool   `usage:"show version and exit"`
}

func Default() Configuration {
	return Configuration{
		HttpAddr:       ":8080",
		Dir:            "data",
		AllowedOrigins: "*",
		MaxLimit:       1000,
		MaxScan:        1000,
		MaxInsertBatch: 100,
		ShowBanner:     true,
	}
}
