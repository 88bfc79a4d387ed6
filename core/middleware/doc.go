// Package middleware groups HTTP middleware for the status API.
//
// # Components
//
//   - auth: API key validation (X-API-Key header or api_key query parameter).
//   - rayid: assigns every request a ray id, stored in fiber locals and echoed in
//     the X-Ray-ID response header for log correlation.
package middleware
