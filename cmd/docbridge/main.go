package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fulldump/goconfig"

	"github.com/docbridge/docbridge/bootstrap"
	"github.com/docbridge/docbridge/configuration"
)

var banner = `
     _            _          _     _
  __| | ___   ___| |__  _ __(_) __| | __ _  ___
 / _` + "`" + ` |/ _ \ / __| '_ \| '__| |/ _` + "`" + ` |/ _` + "`" + ` |/ _ \
| (_| | (_) | (__| |_) | |  | | (_| | (_| |  __/
 \__,_|\___/ \___|_.__/|_|  |_|\__,_|\__, |\___|
                                     |___/
                          version ` + bootstrap.VERSION + `
`

func main() {

	c := configuration.Default()
	goconfig.Read(&c)

	if c.Version {
		fmt.Println("Version:", bootstrap.VERSION)
		return
	}

	if c.ShowBanner {
		fmt.Println(banner)
	}

	if c.ShowConfig {
		e := json.NewEncoder(os.Stdout)
		e.SetIndent("", "    ")
		e.Encode(c)
	}

	start, _ := bootstrap.Bootstrap(&c)
	start()
}
