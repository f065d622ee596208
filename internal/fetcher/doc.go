// Package fetcher retrieves the fuel sheet as a grid.Grid.
//
// Three sources are supported: a published CSV/XLSX export over HTTP, the
// Google Sheets API, and a local file. Every source is wrapped in a
// Retrier that retries transient failures (timeouts, connection errors,
// 429 and 5xx responses) a fixed number of times with a fixed delay.
// The final failure is a NETWORK AppError carrying the attempt count.
package fetcher
