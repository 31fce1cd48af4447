package jy

// 沪深主板/创业板/北交所 行情. Volume and value are stored in units of 10k shares / yuan.
const sqlStockMain = `
SELECT
    CASE
        WHEN t3.SecuMarket = 83 THEN CONCAT(t3.SecuCode, '.SH')
        WHEN t3.SecuMarket = 90 THEN CONCAT(t3.SecuCode, '.SZ')
        WHEN t3.SecuMarket = 18 THEN CONCAT(t3.SecuCode, '.BJ')
        ELSE NULL
    END AS qtid,
    t1.PrevClosePrice AS prevClose,
    t1.OpenPrice AS open,
    t1.HighPrice AS hi,
    t1.LowPrice AS lo,
    t1.ClosePrice AS close,
    t1.TurnoverVolume * 10000 AS volume,
    t1.TurnoverValue * 10000 AS value,
    CAST(t1.ClosePrice AS DECIMAL(10,6)) / t1.PrevClosePrice - 1 AS ret,
    CASE WHEN t1.TurnoverVolume > 0 THEN t1.TurnoverValue / t1.TurnoverVolume ELSE NULL END AS vwap,
    IFNULL(t2.AdjustingFactor, 1) AS adjFactor,
    CASE WHEN t1.TurnoverVolume > 0 THEN 1 ELSE 0 END AS tradeStatus
FROM jydb.qt_performance t1
LEFT JOIN jydb.QT_AdjustingFactor t2
    ON t2.InnerCode = t1.InnerCode
    AND t2.ExDiviDate = (
        SELECT ExDiviDate FROM jydb.QT_AdjustingFactor
        WHERE InnerCode = t1.InnerCode AND ExDiviDate <= t1.TradingDay
        ORDER BY ExDiviDate DESC LIMIT 1
    )
JOIN jydb.SecuMain t3 ON t3.InnerCode = t1.InnerCode
WHERE t1.TradingDay = ?
    AND t3.SecuCategory = 1
    AND t3.SecuMarket IN (18, 83, 90)
    AND t3.ListedSector IN (1, 2, 6, 8)
    AND t3.ListedState = 1
ORDER BY t3.SecuCode`

// 科创板行情
const sqlStockSTIB = `
SELECT
    CASE WHEN t3.SecuMarket = 83 THEN CONCAT(t3.SecuCode, '.SH') END AS qtid,
    t1.PrevClosePrice AS prevClose,
    t1.OpenPrice AS open,
    t1.HighPrice AS hi,
    t1.LowPrice AS lo,
    t1.ClosePrice AS close,
    t1.TurnoverVolume AS volume,
    t1.TurnoverValue AS value,
    CAST(t1.ClosePrice AS DECIMAL(10,6)) / t1.PrevClosePrice - 1 AS ret,
    CASE WHEN t1.TurnoverVolume > 0 THEN t1.TurnoverValue / t1.TurnoverVolume ELSE NULL END AS vwap,
    IFNULL(t2.AdjustingFactor, 1) AS adjFactor,
    CASE WHEN t1.TurnoverVolume > 0 THEN 1 ELSE 0 END AS tradeStatus
FROM jydb.LC_STIBDailyQuote t1
LEFT JOIN jydb.LC_STIBAdjustingFactor t2
    ON t2.InnerCode = t1.InnerCode
    AND t2.ExDiviDate = (
        SELECT ExDiviDate FROM jydb.QT_AdjustingFactor
        WHERE InnerCode = t1.InnerCode AND ExDiviDate <= t1.TradingDay
        ORDER BY ExDiviDate DESC LIMIT 1
    )
JOIN jydb.SecuMain t3 ON t3.InnerCode = t1.InnerCode
WHERE t1.TradingDay = ?
    AND t3.SecuCategory = 1
    AND t3.SecuMarket = 83
    AND t3.ListedSector = 7
    AND t3.ListedState = 1
ORDER BY t3.SecuCode`

// 成分股权重: weights of the last rebalance strictly before the date, in percent.
const sqlComponentMain = `
SELECT
    CASE
        WHEN t2.SecuMarket = 83 THEN CONCAT(t2.SecuCode, '.SH')
        WHEN t2.SecuMarket = 90 THEN CONCAT(t2.SecuCode, '.SZ')
        ELSE NULL
    END AS code,
    t1.Weight AS weight,
    1 AS status
FROM jydb.LC_IndexComponentsWeight t1
LEFT JOIN jydb.SecuMain t2 ON t2.InnerCode = t1.InnerCode
LEFT JOIN jydb.LC_ShareStru t3 ON t3.CompanyCode = t2.CompanyCode
LEFT JOIN jydb.QT_DailyQuote t4 ON t4.InnerCode = t1.InnerCode
WHERE t1.EndDate = (
    SELECT MAX(EndDate) FROM jydb.LC_IndexComponentsWeight
    WHERE IndexCode = ? AND EndDate < ?
)
AND t3.EndDate = (
    SELECT MAX(EndDate) FROM jydb.LC_ShareStru s1
    WHERE s1.CompanyCode = t3.CompanyCode AND s1.EndDate < ?
)
AND t4.TradingDay = ?
AND t1.IndexCode = ?
ORDER BY code`

const sqlComponentSTIB = `
SELECT
    CASE WHEN t2.SecuMarket = 83 THEN CONCAT(t2.SecuCode, '.SH') END AS code,
    t1.Weight AS weight,
    1 AS status
FROM jydb.LC_IndexComponentsWeight t1
LEFT JOIN jydb.SecuMain t2 ON t2.InnerCode = t1.InnerCode
LEFT JOIN jydb.LC_STIBShareStru t3 ON t3.CompanyCode = t2.CompanyCode
LEFT JOIN jydb.LC_STIBDailyQuote t4 ON t4.InnerCode = t1.InnerCode
WHERE t1.EndDate = (
    SELECT MAX(EndDate) FROM jydb.LC_IndexComponentsWeight
    WHERE IndexCode = ? AND EndDate < ?
)
AND t3.EndDate = (
    SELECT MAX(EndDate) FROM jydb.LC_STIBShareStru s1
    WHERE s1.CompanyCode = t3.CompanyCode AND s1.EndDate < ?
)
AND t4.TradingDay = ?
AND t1.IndexCode = ?
ORDER BY code`

// 指数行情. Codes of CSI/SSI indices come back bare and are remapped downstream.
// ChangePCT is a whole-number percent.
const sqlIndexQuote = `
SELECT
    CASE
        WHEN t2.SecuMarket = 83 THEN CONCAT(t2.SecuCode, '.SH')
        WHEN t2.SecuMarket = 90 THEN CONCAT(t2.SecuCode, '.SZ')
        ELSE t2.SecuCode
    END AS qtid,
    t1.PrevClosePrice AS prevClose,
    t1.OpenPrice AS open,
    t1.HighPrice AS hi,
    t1.LowPrice AS lo,
    t1.ClosePrice AS close,
    t1.TurnoverVolume AS vol,
    t1.TurnoverValue AS value,
    t1.ChangePCT AS ` + "`return`" + `
FROM jydb.QT_IndexQuote t1
JOIN jydb.SecuMain t2 ON t2.InnerCode = t1.InnerCode
WHERE t1.TradingDay = ?
    AND t2.SecuCategory = 4
ORDER BY t2.SecuCode`
