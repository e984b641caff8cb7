// @title                       Netbar Billing API
// @version                     1.0
// @description                 Accounts, prepaid balances, seat sessions, inventory and counter orders for an internet café.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import "github.com/netbar/billing-system/internal/cli"

func main() {
	cli.Execute()
}
