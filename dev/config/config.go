package config

// SOS_DEV_YML seeds ./.sos.dev.yaml. Alerts go nowhere unless twilio is filled in.
const SOS_DEV_YML = `
store:
  dir: ./dev

dispatch:
  callPolicy: always-call
  requireCallConfirmation: true
  promptCallPermission: true
  locationTimeout: 5s
  locationMaxStaleness: 10s

location:
  source: static
  static:
    latitude: 43.653226
    longitude: -79.383184

twilio:
  accountSid:
  authToken:
  messagingServiceSid:
  fromNumber:
  defaultCountryCode: "1"

server:
  port: 3000
  tokenTTL: 24h
  privateKeyPem:
`
