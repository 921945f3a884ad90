package statement

import "strings"

const processorHeader = `"Date","Time","TimeZone","Name","Type","Status","Currency","Gross","Fee","Net","From Email Address","To Email Address","Shipping Address","Transaction ID","Item Title"`

const earningsHeader = `Order creation date,Order number,Item ID,Item title,Buyer name,Buyer username,Ship to city,Ship to province/region/state,Ship to zip,Ship to country,Quantity,Item price,Item subtotal,Shipping and handling,Seller collected tax,eBay collected tax,Discount,Gross amount,Final Value Fee - fixed,Final Value Fee - variable,Below standard performance fee,"Very high ""item not as described"" fee",International fee,Deposit processing fee,Regulatory operating fee,Promoted Listings fee,Charity donation,Shipping labels,Payment dispute fee,Expenses,Refunds,Order earnings,Payout currency`

const legacyHeader = `Transaction creation date,Type,Order number,Legal entity,Buyer username,Buyer name,Ship to city,Ship to province/region/state,Ship to zip,Ship to country,Net amount,Payout currency,Payout date,Payout ID,Payout method,Payout status,Reason for hold,Item ID,Transaction ID,Item title,Custom label,Quantity,Item subtotal,Shipping and handling,Seller collected tax,eBay collected tax,Final Value Fee - fixed,Final Value Fee - variable,Regulatory operating fee,"Very high ""item not as described"" fee",Below standard performance fee,International fee,Charity donation,Deposit processing fee,Gross transaction amount,Transaction currency,Exchange rate,Reference ID,Description`

// csvRow builds a quoted row of n columns with the given values set.
func csvRow(n int, values map[int]string) string {
	fields := make([]string, n)
	for i := range fields {
		fields[i] = `"` + strings.ReplaceAll(values[i], `"`, `""`) + `"`
	}
	return strings.Join(fields, ",")
}

func processorLine(name, status, amount, fee, date, txID, title string) string {
	return csvRow(15, map[int]string{
		0: date, 1: "10:15:00", 2: "PST", 3: name, 4: "Express Checkout Payment", 5: status,
		6: "USD", 7: amount, 8: fee, 10: "buyer@example.com", 12: "1 Main St, Springfield", 13: txID, 14: title,
	})
}

func earningsLine(date, order, title, buyer, qty, price, subtotal, shipping string) string {
	return csvRow(33, map[int]string{
		0: date, 1: order, 2: "1234567890", 3: title, 4: buyer, 5: "buyer_1",
		6: "Portland", 7: "OR", 8: "97201", 9: "US",
		10: qty, 11: price, 12: subtotal, 13: shipping, 17: subtotal,
		18: "-$0.30", 19: "-$15.60", 31: "$100.00", 32: "USD",
	})
}

func legacyLine(date, typ, order, buyer, title, qty, subtotal string) string {
	return csvRow(39, map[int]string{
		0: date, 1: typ, 2: order, 4: "buyer_2", 5: buyer, 6: "Austin", 7: "TX", 8: "73301", 9: "US",
		10: "$40.00", 17: "987", 19: title, 21: qty, 22: subtotal, 23: "$5.00",
		26: "-$0.30", 27: "-$4.70", 34: "$55.00",
	})
}

func lines(ls ...string) string {
	return strings.Join(ls, "\n") + "\n"
}
