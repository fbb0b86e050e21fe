// Package platform decodes the handful of bilibili endpoints the tool uses:
// QR login generate and poll, live room info, room id by uid and the nav
// endpoint used to validate a restored session.
//
// Every endpoint answers with the envelope {code, message, data}. A non-zero
// envelope code becomes an *APIError; code -101 (not logged in) matches
// client.ErrUnauthorized. Payloads that decode but make no sense become a
// *ProtocolError matching common.ErrProtocol.
package platform
