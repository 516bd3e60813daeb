package urls

// Reference documentation for the systems klipmi talks to

// MoonrakerZeroconf describes the [zeroconf] section that makes Moonraker
// announce itself over mDNS, which `klipmi scan` relies on.
const MoonrakerZeroconf = "https://moonraker.readthedocs.io/en/latest/configuration/#zeroconf"

// MoonrakerAPI is the JSON-RPC reference for the websocket API.
const MoonrakerAPI = "https://moonraker.readthedocs.io/en/latest/web_api/"

// MoonrakerAuthorization covers trusted_clients and API keys
const MoonrakerAuthorization = "https://moonraker.readthedocs.io/en/latest/configuration/#authorization"

// KlipperStatusReference lists the printer objects and fields that
// telemetry snapshots carry.
const KlipperStatusReference = "https://www.klipper3d.org/Status_Reference.html"
