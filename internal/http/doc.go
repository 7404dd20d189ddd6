// Package http exposes campaigns and availability builder sessions over a
// JSON API.
//
// The router exposes the following endpoints:
//   - POST /campaigns, GET /campaigns, GET /campaigns/{id}, DELETE /campaigns/{id}:
//     campaign management exchanging the `campaignDTO` payload defined in
//     campaign_handler.go.
//   - GET /campaigns/{id}/availability.ics: the submitted rules as an
//     iCalendar feed.
//   - POST /campaigns/{id}/sessions: opens a builder session over the saved
//     rules and returns its view.
//   - GET /sessions/{sid}, DELETE /sessions/{sid}: render or discard a session.
//   - POST /sessions/{sid}/days {"date"}, POST /sessions/{sid}/select-all,
//     POST /sessions/{sid}/clear, POST /sessions/{sid}/month {"delta"}:
//     date selection and navigation.
//   - PUT /sessions/{sid}/options, POST /sessions/{sid}/slots/{slotID}:
//     slot generation settings and slot toggles.
//   - POST /sessions/{sid}/rules, DELETE /sessions/{sid}/rules/{index},
//     POST /sessions/{sid}/submit: rule list editing and submission.
//
// Every session endpoint answers with the session view: the builder snapshot
// plus the notifications raised by the action. Rejected actions answer 422
// with the same view so that clients can render the feedback.
package http
