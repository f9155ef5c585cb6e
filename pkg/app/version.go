package app

// Version is overridden at build time with -ldflags "-X github.com/small-frappuccino/tildebot/pkg/app.Version=...".
var Version = "dev"

// Name is the default application name used for logs and tracing.
const Name = "tildebot"
