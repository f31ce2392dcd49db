package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Daily report pipeline run, every day at 06:00
	CronScheduleDailyRun string `env:"CRON_SCHEDULE_DAILY_RUN" envDefault:"0 0 6 * * *"`
}
