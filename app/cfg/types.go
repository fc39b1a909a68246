package cfg

import "time"

type Cfg struct {
	// Storage
	DBPath         string
	CollectionsDir string
	RedisAddr      string
	RedisChannel   string

	// HTTP
	Port           string
	BaseUrl        string
	MaxUploadBytes int64

	// Admin session
	SessionSecret     string
	SessionTTL        time.Duration
	AdminPassword     string
	AdminPasswordHash string
	LoginRate         float64
	LoginBurst        int

	// Background work
	WorkerCount       int
	SchedulerInterval int

	// Application metadata
	SiteTitle string
	Timezone  string
	Debug     bool
	Version   string
}
