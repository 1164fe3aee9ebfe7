// Package scheduler triggers crawl cycles once a day.
//
// Design decision: We schedule with robfig/cron instead of a sleep loop because:
// 1. Daylight saving and time zones are handled by the cron schedule
// 2. SkipIfStillRunning drops a trigger that fires while a cycle is running
// 3. Recover keeps the daemon alive if a cycle panics
package scheduler
