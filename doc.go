/*
Package ddns keeps a domain's DNS A record pointed at the machine's current
public IP address.

Usage will always start with [ddns.New],
which returns the Client implementation.
New requires a domain name which will be updated and a [Provider] option for
a DNS provider, such as [UsingPorkbun].
Each call to Run performs one reconciliation pass:
the published A record and the current public IP are fetched concurrently,
compared, and the record is rewritten only if the two differ.
Additional client configuration options are listed in the docs for New.

The process is expected to be run repeatedly by an external scheduler such as
cron; no retry or scheduling happens here.
*/
package ddns
