package config

import "github.com/alecthomas/kong"

type Cli struct {
	Version kong.VersionFlag

	LogLevel   string `kong:"name=log-level,env=LOG_LEVEL,default=info,help='Set log level.'"`
	LogJSON    bool   `kong:"name=log-json,env=LOG_JSON,default=false,help='Enable JSON logging output.'"`
	LogCaller  bool   `kong:"name=log-caller,env=LOG_CALLER,default=false,help='Add file:line of the caller to log output.'"`
	LogNoColor bool   `kong:"name=log-nocolor,env=LOG_NOCOLOR,default=false,help='Disable colorized output.'"`

	List       ListCmd       `kong:"cmd,name=list,help='List entries of an archive.'"`
	Cat        CatCmd        `kong:"cmd,name=cat,help='Write the content of an entry to stdout.'"`
	Extract    ExtractCmd    `kong:"cmd,name=extract,help='Extract a single entry directly in the destination folder.'"`
	ExtractAll ExtractAllCmd `kong:"cmd,name=extract-all,help='Extract entries of one or more archives keeping their paths.'"`
	Create     CreateCmd     `kong:"cmd,name=create,help='Create a zip archive from files.'"`
}

type ListCmd struct {
	Password string `kong:"name=password,env=SAFEZIP_PASSWORD,help='Password to decrypt entries.'"`
	Digest   bool   `kong:"name=digest,default=false,help='Compute the sha256 digest of each file.'"`

	Archive string `kong:"arg,required,name=archive,type=existingfile,help='Archive file.'"`
}

type CatCmd struct {
	Password string `kong:"name=password,env=SAFEZIP_PASSWORD,help='Password to decrypt entries.'"`

	Archive string `kong:"arg,required,name=archive,type=existingfile,help='Archive file.'"`
	Name    string `kong:"arg,required,name=name,help='Entry name.'"`
}

type ExtractCmd struct {
	Password string `kong:"name=password,env=SAFEZIP_PASSWORD,help='Password to decrypt entries.'"`
	Dest     string `kong:"name=dest,type=path,help='Destination folder. (default: current directory)'"`

	Archive string `kong:"arg,required,name=archive,type=existingfile,help='Archive file.'"`
	Name    string `kong:"arg,required,name=name,help='Entry name.'"`
}

type ExtractAllCmd struct {
	Password string   `kong:"name=password,env=SAFEZIP_PASSWORD,help='Password to decrypt entries.'"`
	Dest     string   `kong:"name=dest,type=path,help='Destination folder. (default: current directory)'"`
	Includes []string `kong:"name=include,help='Only extract these entries, in this order.'"`
	RmDest   bool     `kong:"name=rm-dest,default=false,help='Removes destination folder first.'"`
	Wrap     bool     `kong:"name=wrap,default=false,help='For several archives, merge output in destination folder.'"`

	Archives []string `kong:"arg,required,name=archive,type=existingfile,help='Archive files.'"`
}

type CreateCmd struct {
	Store bool `kong:"name=store,default=false,help='Store entries without compression.'"`

	Archive string   `kong:"arg,required,name=archive,type=path,help='Archive file to create.'"`
	Files   []string `kong:"arg,required,name=file,type=existingfile,help='Files to add.'"`
}
