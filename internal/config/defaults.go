package config

const (
	defaultDataDir            = "~/.local/share/autopress/data"
	defaultOutputDir          = "~/.local/share/autopress/output"
	defaultAssetsDir          = "~/.local/share/autopress/assets"
	defaultLogDir             = "~/.local/share/autopress/logs"
	defaultWordPressBaseURL   = "https://longbo.cloud"
	defaultRequestTimeout     = 30
	defaultFetchTimeout       = 20
	defaultMaxLeadsPerBatch   = 1
	defaultErrorRetryInterval = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultSiteName           = "Longbo Cloud"
	defaultSiteLogo           = "https://longbo.cloud/wp-content/uploads/2024/01/logo.png"
	defaultSiteLanguage       = "zh-CN"
)

var defaultWindows = []string{"08:00", "16:00"}

var defaultFeeds = []FeedSource{
	{Name: "One Mile at a Time", URL: "https://onemileatatime.com/feed/", Score: 0.9},
	{Name: "Prince of Travel", URL: "https://princeoftravel.com/feed/", Score: 0.8},
	{Name: "Doctor of Credit", URL: "https://www.doctorofcredit.com/feed/", Score: 0.8},
	{Name: "Frequent Miler", URL: "https://frequentmiler.com/feed/", Score: 0.7},
	{Name: "AwardWallet Blog", URL: "https://awardwallet.com/blog/feed/", Score: 0.7},
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			OutputDir: defaultOutputDir,
			AssetsDir: defaultAssetsDir,
			LogDir:    defaultLogDir,
		},
		WordPress: WordPress{
			BaseURL:        defaultWordPressBaseURL,
			RequestTimeout: defaultRequestTimeout,
		},
		Discovery: Discovery{
			Feeds:            append([]FeedSource(nil), defaultFeeds...),
			MaxLeadsPerBatch: defaultMaxLeadsPerBatch,
			FetchTimeout:     defaultFetchTimeout,
		},
		Publishing: Publishing{
			SiteName: defaultSiteName,
			SiteLogo: defaultSiteLogo,
			Language: defaultSiteLanguage,
		},
		Schedule: Schedule{
			Windows: append([]string(nil), defaultWindows...),
		},
		Workflow: Workflow{
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
